package assessment

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	assessments *mongo.Collection
	subjects    *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		assessments: db.Collection(shared.ColAssessments),
		subjects:    db.Collection(shared.ColSubjects),
	}
}

// Find returns the record for (student, subject, semester), or (nil, nil)
// when none exists.
func (s *MongoStore) Find(ctx context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error) {
	filter := bson.M{"student_id": studentID, "subject_code": subjectCode, "semester": semester}
	var rec shared.AssessmentRecord
	err := s.assessments.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts an assessment record keyed by its triple.
func (s *MongoStore) Save(ctx context.Context, rec *shared.AssessmentRecord) error {
	filter := bson.M{"student_id": rec.StudentID, "subject_code": rec.SubjectCode, "semester": rec.Semester}
	update := bson.M{
		"$set": bson.M{
			"internal1":             rec.Internal1,
			"internal2":             rec.Internal2,
			"internal3":             rec.Internal3,
			"assignment_total":      rec.AssignmentTotal,
			"lab_total":             rec.LabTotal,
			"classes_attended":      rec.ClassesAttended,
			"total_classes":         rec.TotalClasses,
			"behavior_score":        rec.BehaviorScore,
			"final_exam":            rec.FinalExam,
			"final_absent":          rec.FinalAbsent,
			"best_of_two_internal":  rec.BestOfTwoInternal,
			"attendance_percentage": rec.AttendancePercentage,
			"total_marks":           rec.TotalMarks,
			"grade":                 rec.Grade,
			"grade_points":          rec.GradePoints,
			"is_passed":             rec.IsPassed,
			"updated_at":            rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        rec.ID,
			"created_at": rec.CreatedAt,
		},
	}
	_, err := s.assessments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Subject loads a published curriculum subject by code.
func (s *MongoStore) Subject(ctx context.Context, code string) (*shared.SubjectRecord, error) {
	var subj shared.SubjectRecord
	err := s.subjects.FindOne(ctx, bson.M{"code": code, "published": true}).Decode(&subj)
	if err == mongo.ErrNoDocuments {
		return nil, shared.Errorf(shared.CodeNotFound, "subject %s not found in a published scheme", code)
	}
	if err != nil {
		return nil, err
	}
	return &subj, nil
}
