// Package gateway wires the engine services behind a Chi HTTP router.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Sahanabu/MentorAI-sub000/internal/assessment"
	"github.com/Sahanabu/MentorAI-sub000/internal/auth"
	"github.com/Sahanabu/MentorAI-sub000/internal/backlog"
	"github.com/Sahanabu/MentorAI-sub000/internal/export"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/handlers"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/gpa"
	"github.com/Sahanabu/MentorAI-sub000/internal/mentor"
	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/risk"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
	"github.com/Sahanabu/MentorAI-sub000/internal/usn"
)

// Services bundles everything the router needs.
type Services struct {
	Auth        *auth.Service
	Parser      *usn.Parser
	Assessments *assessment.Service
	Aggregator  *gpa.Aggregator
	Tracker     *backlog.Tracker
	Balancer    *mentor.Balancer
	Reports     *reports.Service
	Risk        *risk.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svc *Services, corsCfg shared.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svc.Auth}
	usnHandler := &handlers.USNHandler{Parser: svc.Parser}
	assessmentHandler := &handlers.AssessmentHandler{Assessments: svc.Assessments, Risk: svc.Risk}
	resultHandler := &handlers.ResultHandler{Aggregator: svc.Aggregator, Reports: svc.Reports}
	backlogHandler := &handlers.BacklogHandler{Tracker: svc.Tracker}
	mentorHandler := &handlers.MentorHandler{Balancer: svc.Balancer}
	reportHandler := &handlers.ReportHandler{Reports: svc.Reports, Excel: export.NewExcelWriter()}

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---

		r.Post("/auth/login", authHandler.Login)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			util.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
		})

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svc.Auth))

			r.Get("/auth/validate", authHandler.Validate)

			// Identifier parsing
			r.Get("/usn/{usn}", usnHandler.Parse)

			// Marks entry and reads
			r.Route("/assessments", func(r chi.Router) {
				r.Put("/", assessmentHandler.UpsertMarks)
				r.Get("/{student_id}/{subject_code}", assessmentHandler.Get)
				r.Get("/{student_id}/{subject_code}/risk", assessmentHandler.Predict)
			})

			// Semester results and GPA
			r.Route("/results", func(r chi.Router) {
				r.Get("/{student_id}", resultHandler.History)
				r.Post("/{student_id}/finalize", resultHandler.Finalize)
				r.Post("/{student_id}/recompute-cgpa", resultHandler.Recompute)
				r.Post("/{student_id}/graduate", resultHandler.Graduate)
			})

			// Backlog lifecycle
			r.Route("/backlogs", func(r chi.Router) {
				r.Post("/sweep", backlogHandler.Sweep)
				r.Get("/{student_id}", backlogHandler.List)
				r.Post("/{student_id}/{subject_code}/attempts", backlogHandler.AddAttempt)
				r.Post("/{student_id}/{subject_code}/clear", backlogHandler.Clear)
			})

			// Mentor rosters
			r.Route("/mentors", func(r chi.Router) {
				r.Post("/distribute", mentorHandler.Distribute)
				r.Post("/reassign", mentorHandler.Reassign)
				r.Post("/{mentor_id}/students", mentorHandler.Assign)
				r.Delete("/{mentor_id}/students/{student_id}", mentorHandler.Remove)
				r.Put("/{mentor_id}/capacity", mentorHandler.UpdateCapacity)
			})

			// Reports and exports
			r.Route("/reports", func(r chi.Router) {
				r.Get("/backlogs", reportHandler.BacklogSummary)
				r.Get("/mentors", reportHandler.MentorUtilization)
				r.Get("/mentors/export", reportHandler.ExportMentorUtilization)
				r.Get("/subjects/{subject_code}", reportHandler.SubjectStatistics)
				r.Get("/subjects/{subject_code}/export", reportHandler.ExportSubjectStatistics)
				r.Get("/students/{student_id}/export", reportHandler.ExportGPAHistory)
				r.Get("/students/{student_id}/semesters/{semester}/export", reportHandler.ExportSemesterResult)
			})
		})
	})

	return r
}

// AuthMiddleware validates the bearer token and injects its claims into
// the request context.
func AuthMiddleware(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authorization token required")
				return
			}

			claims, err := authSvc.Validate(tokenStr)
			if err != nil {
				util.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
