package reports

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MongoStore is the MongoDB-backed read Store for reports.
type MongoStore struct {
	profiles    *mongo.Collection
	results     *mongo.Collection
	assessments *mongo.Collection
	backlogs    *mongo.Collection
	assignments *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		profiles:    db.Collection(shared.ColStudentProfiles),
		results:     db.Collection(shared.ColSemesterResults),
		assessments: db.Collection(shared.ColAssessments),
		backlogs:    db.Collection(shared.ColBacklogs),
		assignments: db.Collection(shared.ColMentorAssignments),
	}
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

// Results returns a student's semester results, oldest first.
func (s *MongoStore) Results(ctx context.Context, studentID string) ([]shared.SemesterResult, error) {
	cursor, err := s.results.Find(ctx, bson.M{"student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "semester", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.SemesterResult
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssessmentsBySubject returns every assessment recorded against a
// (subject, semester) pair.
func (s *MongoStore) AssessmentsBySubject(ctx context.Context, subjectCode string, semester int) ([]shared.AssessmentRecord, error) {
	filter := bson.M{"subject_code": subjectCode, "semester": semester}
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

// Backlogs returns backlog records department-wide.
func (s *MongoStore) Backlogs(ctx context.Context, openOnly bool) ([]shared.BacklogRecord, error) {
	filter := bson.M{}
	if openOnly {
		filter["is_cleared"] = false
	}
	cursor, err := s.backlogs.Find(ctx, filter)
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

// Assignments returns every mentor roster, sorted by mentor id.
func (s *MongoStore) Assignments(ctx context.Context) ([]shared.MentorAssignment, error) {
	cursor, err := s.assignments.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.MentorAssignment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
