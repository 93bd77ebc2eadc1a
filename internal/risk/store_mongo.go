package risk

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MongoStore is the MongoDB-backed read Store for feature assembly.
type MongoStore struct {
	assessments *mongo.Collection
	profiles    *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		assessments: db.Collection(shared.ColAssessments),
		profiles:    db.Collection(shared.ColStudentProfiles),
	}
}

// Assessment loads one assessment record.
func (s *MongoStore) Assessment(ctx context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error) {
	filter := bson.M{"student_id": studentID, "subject_code": subjectCode, "semester": semester}
	var rec shared.AssessmentRecord
	err := s.assessments.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, shared.Errorf(shared.CodeNotFound,
			"no assessment for student %s subject %s semester %d", studentID, subjectCode, semester)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
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
