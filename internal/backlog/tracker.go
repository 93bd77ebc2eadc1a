// Package backlog manages failed-subject records across repeated exam
// attempts until cleared.
//
// The lifecycle per (student, subject) is: no record (never failed) ->
// open (record exists, not cleared) -> cleared (terminal). Every
// transition recomputes the student's active backlog count from the
// authoritative count of open records.
package backlog

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Sahanabu/MentorAI-sub000/internal/grading"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Store is the persistence boundary for the tracker. Find returns
// (nil, nil) when no record exists. InTransaction runs fn atomically;
// record writes and the derived counter update go through it together.
type Store interface {
	Find(ctx context.Context, studentID, subjectCode string) (*shared.BacklogRecord, error)
	ListByStudent(ctx context.Context, studentID string, openOnly bool) ([]shared.BacklogRecord, error)
	Save(ctx context.Context, rec *shared.BacklogRecord) error
	FailedFinals(ctx context.Context) ([]shared.AssessmentRecord, error)
	CountOpen(ctx context.Context, studentID string) (int, error)
	SetActiveBacklogCount(ctx context.Context, studentID string, count int) error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Tracker drives the backlog state machine.
type Tracker struct {
	store         Store
	scale         grading.Scale
	passThreshold float64
	locks         *shared.KeyedMutex
	logger        log.Logger
}

// NewTracker creates a Tracker. passThreshold is the backlog clearance
// mark (distinct from the subject's original pass policy).
func NewTracker(store Store, scale grading.Scale, passThreshold float64, locks *shared.KeyedMutex, logger log.Logger) *Tracker {
	return &Tracker{store: store, scale: scale, passThreshold: passThreshold, locks: locks, logger: logger}
}

// Open creates a backlog record for a failed subject if one does not
// already exist, and refreshes the student's active count. Idempotent.
func (t *Tracker) Open(ctx context.Context, studentID, subjectCode string, semester int) error {
	t.locks.Lock(studentID)
	defer t.locks.Unlock(studentID)

	return t.store.InTransaction(ctx, func(ctx context.Context) error {
		existing, err := t.store.Find(ctx, studentID, subjectCode)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		rec := &shared.BacklogRecord{
			ID:          uuid.NewString(),
			StudentID:   studentID,
			SubjectCode: subjectCode,
			Semester:    semester,
			Attempts:    []shared.BacklogAttempt{},
			CreatedAt:   time.Now(),
		}
		if err := t.store.Save(ctx, rec); err != nil {
			return err
		}
		level.Info(t.logger).Log("msg", "backlog opened", "student", studentID, "subject", subjectCode)
		return t.refreshCount(ctx, studentID)
	})
}

// Sweep scans all assessments with a recorded final and isPassed=false and
// opens a backlog for any (student, subject) pair lacking one. Returns the
// number of records created.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	failed, err := t.store.FailedFinals(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, rec := range failed {
		existing, err := t.store.Find(ctx, rec.StudentID, rec.SubjectCode)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if err := t.Open(ctx, rec.StudentID, rec.SubjectCode, rec.Semester); err != nil {
			return created, err
		}
		created++
	}

	level.Info(t.logger).Log("msg", "backlog sweep complete", "created", created, "failed_assessments", len(failed))
	return created, nil
}

// AddAttempt appends a retake attempt. Pass/fail is decided by the backlog
// clearance threshold; the attempt grade comes from the shared scale but is
// informational only and is never blended back into the original
// semester's GPA. The first passing attempt clears the backlog. Attempts
// on an already-cleared backlog are rejected; corrections go through the
// manual Clear override.
func (t *Tracker) AddAttempt(ctx context.Context, studentID, subjectCode string, marks float64, examDate time.Time) (*shared.BacklogRecord, error) {
	if marks < 0 || marks > 100 {
		return nil, shared.Errorf(shared.CodeValidation, "attempt marks %.1f out of range [0,100]", marks)
	}

	t.locks.Lock(studentID)
	defer t.locks.Unlock(studentID)

	var out *shared.BacklogRecord
	err := t.store.InTransaction(ctx, func(ctx context.Context) error {
		rec, err := t.store.Find(ctx, studentID, subjectCode)
		if err != nil {
			return err
		}
		if rec == nil {
			return shared.Errorf(shared.CodeNotFound, "no backlog for student %s subject %s", studentID, subjectCode)
		}
		if rec.IsCleared {
			return shared.Errorf(shared.CodeValidation,
				"backlog for student %s subject %s is already cleared", studentID, subjectCode)
		}

		grade, _ := t.scale.GradeFor(marks)
		attempt := shared.BacklogAttempt{
			AttemptNumber: len(rec.Attempts) + 1,
			ExamDate:      examDate,
			MarksObtained: marks,
			IsPassed:      marks >= t.passThreshold,
			Grade:         grade,
		}
		rec.Attempts = append(rec.Attempts, attempt)

		if attempt.IsPassed {
			now := time.Now()
			rec.IsCleared = true
			rec.ClearedDate = &now
		}

		if err := t.store.Save(ctx, rec); err != nil {
			return err
		}
		if err := t.refreshCount(ctx, studentID); err != nil {
			return err
		}

		level.Info(t.logger).Log("msg", "backlog attempt recorded",
			"student", studentID, "subject", subjectCode,
			"attempt", attempt.AttemptNumber, "passed", attempt.IsPassed)
		out = rec
		return nil
	})
	return out, err
}

// Clear is the manual override that closes a backlog without a passing
// attempt. Idempotent: clearing a cleared backlog is a no-op.
func (t *Tracker) Clear(ctx context.Context, studentID, subjectCode string) (*shared.BacklogRecord, error) {
	t.locks.Lock(studentID)
	defer t.locks.Unlock(studentID)

	var out *shared.BacklogRecord
	err := t.store.InTransaction(ctx, func(ctx context.Context) error {
		rec, err := t.store.Find(ctx, studentID, subjectCode)
		if err != nil {
			return err
		}
		if rec == nil {
			return shared.Errorf(shared.CodeNotFound, "no backlog for student %s subject %s", studentID, subjectCode)
		}
		if rec.IsCleared {
			out = rec
			return nil
		}

		now := time.Now()
		rec.IsCleared = true
		rec.ClearedDate = &now
		if err := t.store.Save(ctx, rec); err != nil {
			return err
		}
		if err := t.refreshCount(ctx, studentID); err != nil {
			return err
		}

		level.Info(t.logger).Log("msg", "backlog manually cleared", "student", studentID, "subject", subjectCode)
		out = rec
		return nil
	})
	return out, err
}

// List returns a student's backlog records.
func (t *Tracker) List(ctx context.Context, studentID string, openOnly bool) ([]shared.BacklogRecord, error) {
	return t.store.ListByStudent(ctx, studentID, openOnly)
}

// refreshCount recomputes active_backlog_count from the count of open
// records. The counter must never drift from that count.
func (t *Tracker) refreshCount(ctx context.Context, studentID string) error {
	n, err := t.store.CountOpen(ctx, studentID)
	if err != nil {
		return err
	}
	return t.store.SetActiveBacklogCount(ctx, studentID, n)
}
