package backlog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	client      *mongo.Client
	backlogs    *mongo.Collection
	assessments *mongo.Collection
	profiles    *mongo.Collection
}

// NewMongoStore creates a MongoStore. The client is kept for transactions.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:      client,
		backlogs:    db.Collection(shared.ColBacklogs),
		assessments: db.Collection(shared.ColAssessments),
		profiles:    db.Collection(shared.ColStudentProfiles),
	}
}

// Find returns the backlog record for (student, subject), or (nil, nil)
// when none exists.
func (s *MongoStore) Find(ctx context.Context, studentID, subjectCode string) (*shared.BacklogRecord, error) {
	var rec shared.BacklogRecord
	err := s.backlogs.FindOne(ctx, bson.M{"student_id": studentID, "subject_code": subjectCode}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByStudent returns a student's backlogs, optionally only open ones.
func (s *MongoStore) ListByStudent(ctx context.Context, studentID string, openOnly bool) ([]shared.BacklogRecord, error) {
	filter := bson.M{"student_id": studentID}
	if openOnly {
		filter["is_cleared"] = false
	}
	cursor, err := s.backlogs.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "subject_code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.BacklogRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Save upserts a backlog record by id.
func (s *MongoStore) Save(ctx context.Context, rec *shared.BacklogRecord) error {
	_, err := s.backlogs.UpdateOne(ctx,
		bson.M{"_id": rec.ID},
		bson.M{"$set": bson.M{
			"student_id":   rec.StudentID,
			"subject_code": rec.SubjectCode,
			"semester":     rec.Semester,
			"attempts":     rec.Attempts,
			"is_cleared":   rec.IsCleared,
			"cleared_date": rec.ClearedDate,
			"created_at":   rec.CreatedAt,
		}},
		options.Update().SetUpsert(true))
	return err
}

// FailedFinals returns assessments with a final outcome (exam score or
// recorded absence) and a failing derived grade, the input set for the
// auto-create sweep.
func (s *MongoStore) FailedFinals(ctx context.Context) ([]shared.AssessmentRecord, error) {
	filter := bson.M{
		"is_passed": false,
		"$or": bson.A{
			bson.M{"final_exam": bson.M{"$ne": nil}},
			bson.M{"final_absent": true},
		},
	}
	cursor, err := s.assessments.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.AssessmentRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountOpen counts a student's open backlogs.
func (s *MongoStore) CountOpen(ctx context.Context, studentID string) (int, error) {
	n, err := s.backlogs.CountDocuments(ctx, bson.M{"student_id": studentID, "is_cleared": false})
	return int(n), err
}

// SetActiveBacklogCount writes the derived counter onto the profile.
func (s *MongoStore) SetActiveBacklogCount(ctx context.Context, studentID string, count int) error {
	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": studentID},
		bson.M{"$set": bson.M{"active_backlog_count": count, "updated_at": time.Now()}})
	return err
}

// InTransaction runs fn inside a MongoDB transaction.
func (s *MongoStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
