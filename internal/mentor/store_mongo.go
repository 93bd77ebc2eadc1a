package mentor

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
	assignments *mongo.Collection
	profiles    *mongo.Collection
}

// NewMongoStore creates a MongoStore. The client is kept for transactions.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:      client,
		assignments: db.Collection(shared.ColMentorAssignments),
		profiles:    db.Collection(shared.ColStudentProfiles),
	}
}

// Assignment loads a mentor's roster, or (nil, nil) when none exists.
func (s *MongoStore) Assignment(ctx context.Context, mentorID string) (*shared.MentorAssignment, error) {
	var a shared.MentorAssignment
	err := s.assignments.FindOne(ctx, bson.M{"_id": mentorID}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAssignment replaces a mentor's roster document.
func (s *MongoStore) SaveAssignment(ctx context.Context, a *shared.MentorAssignment) error {
	_, err := s.assignments.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return err
}

// SetStudentMentor writes (or clears, for "") the mentor reference on a
// student profile.
func (s *MongoStore) SetStudentMentor(ctx context.Context, studentID, mentorID string) error {
	var update bson.M
	if mentorID == "" {
		update = bson.M{
			"$unset": bson.M{"mentor_id": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		}
	} else {
		update = bson.M{"$set": bson.M{"mentor_id": mentorID, "updated_at": time.Now()}}
	}
	_, err := s.profiles.UpdateOne(ctx, bson.M{"_id": studentID}, update)
	return err
}

// Profile loads one student profile.
func (s *MongoStore) Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error) {
	var p shared.StudentAcademicProfile
	err := s.profiles.FindOne(ctx, bson.M{"_id": studentID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, shared.Errorf(shared.CodeNotFound, "student %s not found", studentID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Profiles loads the profiles for a set of student ids.
func (s *MongoStore) Profiles(ctx context.Context, ids []string) ([]shared.StudentAcademicProfile, error) {
	cursor, err := s.profiles.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.StudentAcademicProfile
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnassignedStudents returns active, non-graduated students of a
// department with no mentor, optionally filtered by current semester
// (0 means any).
func (s *MongoStore) UnassignedStudents(ctx context.Context, department string, semester int) ([]shared.StudentAcademicProfile, error) {
	filter := bson.M{
		"department": department,
		"is_active":  true,
		"graduated":  bson.M{"$ne": true},
		"$or": []bson.M{
			{"mentor_id": bson.M{"$exists": false}},
			{"mentor_id": ""},
		},
	}
	if semester > 0 {
		filter["current_semester"] = semester
	}

	cursor, err := s.profiles.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.StudentAcademicProfile
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InTransaction runs fn inside a MongoDB transaction.
func (s *MongoStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
