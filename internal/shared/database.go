// ============================================================================
// internal/shared/database.go
// MongoDB connection, transaction, and index helpers
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used across the engine.
const (
	ColUsers             = "users"
	ColSubjects          = "subjects"
	ColAssessments       = "assessments"
	ColBacklogs          = "backlogs"
	ColSemesterResults   = "semester_results"
	ColStudentProfiles   = "student_profiles"
	ColMentorAssignments = "mentor_assignments"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// ConnectMongoDB establishes a connection to MongoDB with pooling options
// and verifies it with a ping.
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB (Database: %s)", config.Database)

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes the MongoDB connection.
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// WithTransaction executes a function within a MongoDB transaction. The
// mentor balancer and backlog tracker rely on this so dual-bookkeeping
// writes (assignment set + student mentor_id, backlog state + active count)
// land together or not at all.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})

	return err
}

// EnsureIndexes creates the indexes the engine's queries depend on.
// Safe to call on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		ColAssessments: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject_code", Value: 1}, {Key: "semester", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "subject_code", Value: 1}, {Key: "semester", Value: 1}}},
		},
		ColBacklogs: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject_code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "is_cleared", Value: 1}}},
		},
		ColSemesterResults: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "semester", Value: 1}}, Options: unique},
		},
		ColStudentProfiles: {
			{Keys: bson.D{{Key: "mentor_id", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}, {Key: "current_semester", Value: 1}}},
		},
		ColMentorAssignments: {
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		ColUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", col, err)
		}
	}
	return nil
}
