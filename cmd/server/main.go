package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Sahanabu/MentorAI-sub000/internal/assessment"
	"github.com/Sahanabu/MentorAI-sub000/internal/auth"
	"github.com/Sahanabu/MentorAI-sub000/internal/backlog"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway"
	"github.com/Sahanabu/MentorAI-sub000/internal/gpa"
	"github.com/Sahanabu/MentorAI-sub000/internal/grading"
	"github.com/Sahanabu/MentorAI-sub000/internal/mentor"
	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/risk"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
	"github.com/Sahanabu/MentorAI-sub000/internal/usn"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	// 1. Load Configuration
	if err := shared.LoadEnv(".env"); err != nil {
		level.Debug(logger).Log("msg", "no .env file, using environment", "err", err)
	}
	config, err := shared.LoadServiceConfig("server")
	if err != nil {
		level.Error(logger).Log("msg", "configuration error", "err", err)
		os.Exit(1)
	}
	if err := shared.ValidateServiceConfig(config); err != nil {
		level.Error(logger).Log("msg", "configuration invalid", "err", err)
		os.Exit(1)
	}

	// 2. Connect MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		level.Error(logger).Log("msg", "mongodb connection failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			level.Warn(logger).Log("msg", "mongodb disconnect failed", "err", err)
		}
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := shared.EnsureIndexes(indexCtx, db); err != nil {
		cancel()
		level.Error(logger).Log("msg", "index creation failed", "err", err)
		os.Exit(1)
	}
	cancel()

	// 3. Wire Services
	scale := grading.DefaultScale()
	locks := shared.NewKeyedMutex()
	parser := usn.NewParser(usn.DefaultRules(config.Academic))

	trackerStore := backlog.NewMongoStore(client, db)
	tracker := backlog.NewTracker(trackerStore, scale, config.Academic.BacklogPassThreshold,
		locks, log.With(logger, "component", "backlog"))

	assessments := assessment.NewService(assessment.NewMongoStore(db), tracker, scale,
		locks, log.With(logger, "component", "assessment"))

	aggregator := gpa.NewAggregator(gpa.NewMongoStore(db), locks,
		log.With(logger, "component", "gpa"))

	balancer := mentor.NewBalancer(mentor.NewMongoStore(client, db),
		config.Academic.MaxStudentsPerMentor, locks, log.With(logger, "component", "mentor"))

	reportSvc := reports.NewService(reports.NewMongoStore(db))

	riskClient := risk.NewClient(config.Risk, log.With(logger, "component", "risk"))
	riskSvc := risk.NewService(risk.NewMongoStore(db), riskClient)

	authSvc := auth.NewService(auth.NewMongoStore(db), config.Security,
		log.With(logger, "component", "auth"))

	router := gateway.SetupRoutes(&gateway.Services{
		Auth:        authSvc,
		Parser:      parser,
		Assessments: assessments,
		Aggregator:  aggregator,
		Tracker:     tracker,
		Balancer:    balancer,
		Reports:     reportSvc,
		Risk:        riskSvc,
	}, config.CORS)

	// 4. Configure Server
	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start Server in a Goroutine
	go func() {
		level.Info(logger).Log("msg", "server listening", "port", config.HTTPPort, "env", config.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "http server error", "err", err)
			os.Exit(1)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	level.Info(logger).Log("msg", "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		level.Warn(logger).Log("msg", "forced shutdown", "err", err)
	}
	level.Info(logger).Log("msg", "server stopped")
}
