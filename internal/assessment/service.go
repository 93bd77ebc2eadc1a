// Package assessment is the write path for raw marks. It validates
// domain-level input ranges, runs the grade derivation pass, persists the
// record, and opens a backlog when a recorded final grades to F.
package assessment

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Sahanabu/MentorAI-sub000/internal/grading"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Store is the persistence boundary. Find returns (nil, nil) when no
// record exists yet for the (student, subject, semester) triple.
type Store interface {
	Find(ctx context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error)
	Save(ctx context.Context, rec *shared.AssessmentRecord) error
	Subject(ctx context.Context, code string) (*shared.SubjectRecord, error)
}

// BacklogOpener is the slice of the backlog tracker the write path needs.
type BacklogOpener interface {
	Open(ctx context.Context, studentID, subjectCode string, semester int) error
}

// Service handles marks entry.
type Service struct {
	store    Store
	backlogs BacklogOpener
	scale    grading.Scale
	locks    *shared.KeyedMutex
	logger   log.Logger
}

// NewService creates a Service.
func NewService(store Store, backlogs BacklogOpener, scale grading.Scale, locks *shared.KeyedMutex, logger log.Logger) *Service {
	return &Service{store: store, backlogs: backlogs, scale: scale, locks: locks, logger: logger}
}

// MarksInput carries one marks update. Nil fields leave the stored value
// untouched, so internals, assignment, attendance, and the final exam can
// arrive in any order across separate calls.
type MarksInput struct {
	StudentID   string `json:"student_id"`
	SubjectCode string `json:"subject_code"`
	Semester    int    `json:"semester"`

	Internal1       *float64 `json:"internal1,omitempty"`
	Internal2       *float64 `json:"internal2,omitempty"`
	Internal3       *float64 `json:"internal3,omitempty"`
	AssignmentTotal *float64 `json:"assignment_total,omitempty"`
	LabTotal        *float64 `json:"lab_total,omitempty"`
	ClassesAttended *int     `json:"classes_attended,omitempty"`
	TotalClasses    *int     `json:"total_classes,omitempty"`
	BehaviorScore   *float64 `json:"behavior_score,omitempty"`
	FinalExam       *float64 `json:"final_exam,omitempty"`
	FinalAbsent     *bool    `json:"final_absent,omitempty"`
}

// UpsertMarks applies a marks update, rederives all derived fields, and
// persists the record.
func (s *Service) UpsertMarks(ctx context.Context, in MarksInput) (*shared.AssessmentRecord, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	if _, err := s.store.Subject(ctx, in.SubjectCode); err != nil {
		return nil, err
	}

	rec, err := s.applyAndSave(ctx, in)
	if err != nil {
		return nil, err
	}

	// The per-student lock must be released before the tracker runs: Open
	// takes the same lock itself, and the lock is not reentrant. Open is
	// idempotent, so this ordering is safe.
	if rec.HasOutcome() && !rec.IsPassed {
		if err := s.backlogs.Open(ctx, rec.StudentID, rec.SubjectCode, rec.Semester); err != nil {
			return nil, err
		}
	}

	level.Debug(s.logger).Log("msg", "marks upserted", "student", in.StudentID,
		"subject", in.SubjectCode, "semester", in.Semester, "grade", rec.Grade)
	return rec, nil
}

// applyAndSave runs the read-modify-write under the per-student lock so
// two concurrent updates for the same student cannot race on derived
// state.
func (s *Service) applyAndSave(ctx context.Context, in MarksInput) (*shared.AssessmentRecord, error) {
	s.locks.Lock(in.StudentID)
	defer s.locks.Unlock(in.StudentID)

	rec, err := s.store.Find(ctx, in.StudentID, in.SubjectCode, in.Semester)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &shared.AssessmentRecord{
			ID:            uuid.NewString(),
			StudentID:     in.StudentID,
			SubjectCode:   in.SubjectCode,
			Semester:      in.Semester,
			BehaviorScore: 8, // default
			CreatedAt:     time.Now(),
		}
	}

	apply(rec, in)

	if err := grading.Derive(rec, s.scale); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the assessment record for a triple.
func (s *Service) Get(ctx context.Context, studentID, subjectCode string, semester int) (*shared.AssessmentRecord, error) {
	rec, err := s.store.Find(ctx, studentID, subjectCode, semester)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, shared.Errorf(shared.CodeNotFound,
			"no assessment for student %s subject %s semester %d", studentID, subjectCode, semester)
	}
	return rec, nil
}

func apply(rec *shared.AssessmentRecord, in MarksInput) {
	if in.Internal1 != nil {
		rec.Internal1 = in.Internal1
	}
	if in.Internal2 != nil {
		rec.Internal2 = in.Internal2
	}
	if in.Internal3 != nil {
		rec.Internal3 = in.Internal3
	}
	if in.AssignmentTotal != nil {
		rec.AssignmentTotal = *in.AssignmentTotal
	}
	if in.LabTotal != nil {
		rec.LabTotal = *in.LabTotal
	}
	if in.ClassesAttended != nil {
		rec.ClassesAttended = *in.ClassesAttended
	}
	if in.TotalClasses != nil {
		rec.TotalClasses = *in.TotalClasses
	}
	if in.BehaviorScore != nil {
		rec.BehaviorScore = *in.BehaviorScore
	}
	// A score and an absence are mutually exclusive outcomes; the latest
	// one recorded wins.
	if in.FinalExam != nil {
		rec.FinalExam = in.FinalExam
		rec.FinalAbsent = false
	}
	if in.FinalAbsent != nil {
		rec.FinalAbsent = *in.FinalAbsent
		if rec.FinalAbsent {
			rec.FinalExam = nil
		}
	}
}

// validate enforces the raw input ranges at the domain boundary. The
// request layer has already type-checked; this is range checking only.
func validate(in MarksInput) error {
	if in.StudentID == "" || in.SubjectCode == "" {
		return shared.Errorf(shared.CodeValidation, "student_id and subject_code are required")
	}
	if in.Semester < shared.FirstSemester || in.Semester > shared.LastSemester {
		return shared.Errorf(shared.CodeValidation, "semester %d out of range [1,8]", in.Semester)
	}

	for i, p := range []*float64{in.Internal1, in.Internal2, in.Internal3} {
		if p != nil && (*p < 0 || *p > 25) {
			return shared.Errorf(shared.CodeValidation, "internal%d score %.1f out of range [0,25]", i+1, *p)
		}
	}
	if in.AssignmentTotal != nil && (*in.AssignmentTotal < 0 || *in.AssignmentTotal > 20) {
		return shared.Errorf(shared.CodeValidation, "assignment total %.1f out of range [0,20]", *in.AssignmentTotal)
	}
	if in.LabTotal != nil && (*in.LabTotal < 0 || *in.LabTotal > 10) {
		return shared.Errorf(shared.CodeValidation, "lab total %.1f out of range [0,10]", *in.LabTotal)
	}
	if in.BehaviorScore != nil && (*in.BehaviorScore < 0 || *in.BehaviorScore > 10) {
		return shared.Errorf(shared.CodeValidation, "behavior score %.1f out of range [0,10]", *in.BehaviorScore)
	}
	if in.FinalExam != nil && (*in.FinalExam < 0 || *in.FinalExam > 100) {
		return shared.Errorf(shared.CodeValidation, "final exam score %.1f out of range [0,100]", *in.FinalExam)
	}
	if in.FinalExam != nil && in.FinalAbsent != nil && *in.FinalAbsent {
		return shared.Errorf(shared.CodeValidation, "final exam score and final absence cannot be recorded together")
	}
	if in.ClassesAttended != nil && *in.ClassesAttended < 0 {
		return shared.Errorf(shared.CodeValidation, "classes attended cannot be negative")
	}
	if in.TotalClasses != nil && *in.TotalClasses < 0 {
		return shared.Errorf(shared.CodeValidation, "total classes cannot be negative")
	}
	if in.ClassesAttended != nil && in.TotalClasses != nil && *in.ClassesAttended > *in.TotalClasses {
		return shared.Errorf(shared.CodeValidation, "classes attended %d exceeds total classes %d",
			*in.ClassesAttended, *in.TotalClasses)
	}
	return nil
}
