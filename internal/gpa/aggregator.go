// Package gpa rolls graded subjects up into semester and cumulative GPAs
// and manages graduation eligibility.
package gpa

import (
	"context"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Store is the persistence boundary for the aggregator.
type Store interface {
	Subjects(ctx context.Context, semester int) ([]shared.SubjectRecord, error)
	GradedAssessments(ctx context.Context, studentID string, semester int) ([]shared.AssessmentRecord, error)
	Results(ctx context.Context, studentID string) ([]shared.SemesterResult, error)
	SaveResult(ctx context.Context, res *shared.SemesterResult) error
	Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error)
	SetCGPA(ctx context.Context, studentID string, cgpa float64) error
	MarkGraduated(ctx context.Context, studentID string, at time.Time) error
}

// Aggregator computes SGPA/CGPA rollups and the graduation transition.
type Aggregator struct {
	store  Store
	locks  *shared.KeyedMutex
	logger log.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(store Store, locks *shared.KeyedMutex, logger log.Logger) *Aggregator {
	return &Aggregator{store: store, locks: locks, logger: logger}
}

// ============================================================================
// Pure computation
// ============================================================================

// SemesterTotals is the credit arithmetic for one semester.
type SemesterTotals struct {
	TotalCredits      int
	EarnedCredits     int
	TotalCreditPoints float64
	SGPA              float64
}

// ComputeSemester computes credit totals and SGPA for a set of graded
// subjects. Failed and absent subjects count toward attempted credits but
// contribute neither credit points nor earned credits.
func ComputeSemester(subjects []shared.GradedSubject) SemesterTotals {
	var t SemesterTotals
	for _, s := range subjects {
		t.TotalCredits += s.Credits
		if !shared.IsPassingGrade(s.Grade) {
			continue
		}
		t.EarnedCredits += s.Credits
		t.TotalCreditPoints += s.GradePoints * float64(s.Credits)
	}
	if t.EarnedCredits > 0 {
		t.SGPA = t.TotalCreditPoints / float64(t.EarnedCredits)
	}
	return t
}

// ComputeCumulative computes the CGPA over completed semester results,
// counting only semesters at or after the entry type's start semester.
// Lateral-entry credits from semesters 1-2 are never counted, even if
// results for them exist. Rounded to 2 decimals; 0 if nothing qualifies.
func ComputeCumulative(results []shared.SemesterResult, entry shared.EntryType) float64 {
	start := shared.StartSemester(entry)

	var points float64
	var credits int
	for _, r := range results {
		if !r.Completed || r.Semester < start {
			continue
		}
		points += r.TotalCreditPoints
		credits += r.EarnedCredits
	}
	if credits == 0 {
		return 0
	}
	return math.Round(points/float64(credits)*100) / 100
}

// CompletedQualifying counts completed results at or after the entry
// type's start semester.
func CompletedQualifying(results []shared.SemesterResult, entry shared.EntryType) int {
	start := shared.StartSemester(entry)
	n := 0
	for _, r := range results {
		if r.Completed && r.Semester >= start {
			n++
		}
	}
	return n
}

// RequiredSemesters returns how many completed semesters graduation needs:
// 8 for regular entry, 6 for lateral (semesters 3-8).
func RequiredSemesters(entry shared.EntryType) int {
	return shared.LastSemester - shared.StartSemester(entry) + 1
}

// ============================================================================
// Service operations
// ============================================================================

// FinalizeSemester builds and persists the SemesterResult for a student's
// semester from their graded assessments, then recomputes the CGPA. Every
// assessment must already carry a derived grade.
func (a *Aggregator) FinalizeSemester(ctx context.Context, studentID string, semester int) (*shared.SemesterResult, error) {
	a.locks.Lock(studentID)
	defer a.locks.Unlock(studentID)

	profile, err := a.store.Profile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	assessments, err := a.store.GradedAssessments(ctx, studentID, semester)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return nil, shared.Errorf(shared.CodeValidation,
			"no graded assessments for student %s semester %d", studentID, semester)
	}

	subjects, err := a.store.Subjects(ctx, semester)
	if err != nil {
		return nil, err
	}
	credits := make(map[string]shared.SubjectRecord, len(subjects))
	for _, s := range subjects {
		credits[s.Code] = s
	}

	graded := make([]shared.GradedSubject, 0, len(assessments))
	for _, rec := range assessments {
		if rec.Grade == "" {
			return nil, shared.Errorf(shared.CodeValidation,
				"assessment %s/%s has no derived grade; run derivation before finalizing", studentID, rec.SubjectCode)
		}
		subj, ok := credits[rec.SubjectCode]
		if !ok {
			return nil, shared.Errorf(shared.CodeNotFound,
				"subject %s is not in the semester %d scheme", rec.SubjectCode, semester)
		}
		graded = append(graded, shared.GradedSubject{
			SubjectCode: rec.SubjectCode,
			SubjectName: subj.Name,
			Credits:     subj.Credits,
			TotalMarks:  rec.TotalMarks,
			Grade:       rec.Grade,
			GradePoints: rec.GradePoints,
			IsPassed:    rec.IsPassed,
		})
	}

	totals := ComputeSemester(graded)
	result := &shared.SemesterResult{
		ID:                uuid.NewString(),
		StudentID:         studentID,
		Semester:          semester,
		Subjects:          graded,
		TotalCredits:      totals.TotalCredits,
		EarnedCredits:     totals.EarnedCredits,
		TotalCreditPoints: totals.TotalCreditPoints,
		SGPA:              totals.SGPA,
		Completed:         true,
		FinalizedAt:       time.Now(),
	}

	if err := a.store.SaveResult(ctx, result); err != nil {
		return nil, err
	}

	if _, err := a.recomputeCGPA(ctx, profile); err != nil {
		return nil, err
	}

	level.Info(a.logger).Log("msg", "semester finalized",
		"student", studentID, "semester", semester, "sgpa", totals.SGPA)
	return result, nil
}

// RecomputeCGPA recalculates the CGPA from completed results and writes it
// back to the profile, the single authoritative place CGPA is read from.
func (a *Aggregator) RecomputeCGPA(ctx context.Context, studentID string) (float64, error) {
	a.locks.Lock(studentID)
	defer a.locks.Unlock(studentID)

	profile, err := a.store.Profile(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return a.recomputeCGPA(ctx, profile)
}

func (a *Aggregator) recomputeCGPA(ctx context.Context, profile *shared.StudentAcademicProfile) (float64, error) {
	results, err := a.store.Results(ctx, profile.ID)
	if err != nil {
		return 0, err
	}
	cgpa := ComputeCumulative(results, profile.EntryType)
	if err := a.store.SetCGPA(ctx, profile.ID, cgpa); err != nil {
		return 0, err
	}
	return cgpa, nil
}

// Graduate marks a student as graduated once enough completed semesters
// exist. The transition is terminal and idempotent: re-invoking on an
// already-graduated student is a no-op, not an error. Graduation also
// deactivates the account.
func (a *Aggregator) Graduate(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error) {
	a.locks.Lock(studentID)
	defer a.locks.Unlock(studentID)

	profile, err := a.store.Profile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if profile.Graduated {
		return profile, nil
	}

	results, err := a.store.Results(ctx, studentID)
	if err != nil {
		return nil, err
	}

	completed := CompletedQualifying(results, profile.EntryType)
	required := RequiredSemesters(profile.EntryType)
	if completed < required {
		return nil, shared.Errorf(shared.CodeValidation,
			"student %s has %d completed semesters, needs %d to graduate", studentID, completed, required)
	}

	now := time.Now()
	if err := a.store.MarkGraduated(ctx, studentID, now); err != nil {
		return nil, err
	}

	profile.Graduated = true
	profile.GraduatedAt = &now
	profile.IsActive = false

	level.Info(a.logger).Log("msg", "student graduated", "student", studentID)
	return profile, nil
}
