package gpa

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
	subjects    *mongo.Collection
	assessments *mongo.Collection
	results     *mongo.Collection
	profiles    *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		subjects:    db.Collection(shared.ColSubjects),
		assessments: db.Collection(shared.ColAssessments),
		results:     db.Collection(shared.ColSemesterResults),
		profiles:    db.Collection(shared.ColStudentProfiles),
	}
}

// Subjects returns the published curriculum subjects for a semester.
func (s *MongoStore) Subjects(ctx context.Context, semester int) ([]shared.SubjectRecord, error) {
	cursor, err := s.subjects.Find(ctx, bson.M{"semester": semester, "published": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []shared.SubjectRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GradedAssessments returns a student's assessments for a semester that
// have a final outcome, a recorded exam score or a recorded absence, and
// therefore a derived grade.
func (s *MongoStore) GradedAssessments(ctx context.Context, studentID string, semester int) ([]shared.AssessmentRecord, error) {
	filter := bson.M{
		"student_id": studentID,
		"semester":   semester,
		"$or": bson.A{
			bson.M{"final_exam": bson.M{"$ne": nil}},
			bson.M{"final_absent": true},
		},
	}
	cursor, err := s.assessments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "subject_code", Value: 1}}))
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

// Results returns all semester results for a student, oldest first.
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

// SaveResult upserts a semester result keyed by (student, semester) so a
// correction replaces the previous finalization instead of duplicating it.
func (s *MongoStore) SaveResult(ctx context.Context, res *shared.SemesterResult) error {
	filter := bson.M{"student_id": res.StudentID, "semester": res.Semester}
	update := bson.M{
		"$set": bson.M{
			"subjects":            res.Subjects,
			"total_credits":       res.TotalCredits,
			"earned_credits":      res.EarnedCredits,
			"total_credit_points": res.TotalCreditPoints,
			"sgpa":                res.SGPA,
			"completed":           res.Completed,
			"finalized_at":        res.FinalizedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        res.ID,
			"student_id": res.StudentID,
			"semester":   res.Semester,
		},
	}
	_, err := s.results.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Profile loads a student profile.
func (s *MongoStore) Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error) {
	var profile shared.StudentAcademicProfile
	err := s.profiles.FindOne(ctx, bson.M{"_id": studentID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, shared.Errorf(shared.CodeNotFound, "student %s not found", studentID)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetCGPA writes the recomputed CGPA onto the profile.
func (s *MongoStore) SetCGPA(ctx context.Context, studentID string, cgpa float64) error {
	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": studentID},
		bson.M{"$set": bson.M{"cgpa": cgpa, "updated_at": time.Now()}})
	return err
}

// MarkGraduated flips the terminal graduation flags and deactivates the
// account.
func (s *MongoStore) MarkGraduated(ctx context.Context, studentID string, at time.Time) error {
	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": studentID, "graduated": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"graduated":    true,
			"graduated_at": at,
			"is_active":    false,
			"updated_at":   at,
		}})
	return err
}
