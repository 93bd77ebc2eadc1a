// Package reports exposes read-only summary views for dashboards and
// exports. Consumers receive plain derived structures, never the
// underlying entities.
package reports

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Store is the read boundary for report queries.
type Store interface {
	Profile(ctx context.Context, studentID string) (*shared.StudentAcademicProfile, error)
	Results(ctx context.Context, studentID string) ([]shared.SemesterResult, error)
	AssessmentsBySubject(ctx context.Context, subjectCode string, semester int) ([]shared.AssessmentRecord, error)
	Backlogs(ctx context.Context, openOnly bool) ([]shared.BacklogRecord, error)
	Assignments(ctx context.Context) ([]shared.MentorAssignment, error)
}

// Service builds the report views.
type Service struct {
	store Store
}

// NewService creates a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ============================================================================
// GPA history
// ============================================================================

// SemesterGPA is one row of a student's GPA history.
type SemesterGPA struct {
	Semester      int     `json:"semester"`
	SGPA          float64 `json:"sgpa"`
	EarnedCredits int     `json:"earned_credits"`
	TotalCredits  int     `json:"total_credits"`
	Completed     bool    `json:"completed"`
}

// GPAHistory is a student's full GPA record.
type GPAHistory struct {
	StudentID          string        `json:"student_id"`
	EntryType          shared.EntryType `json:"entry_type"`
	CGPA               float64       `json:"cgpa"`
	ActiveBacklogCount int           `json:"active_backlog_count"`
	Semesters          []SemesterGPA `json:"semesters"`
}

// GPAHistory returns the per-semester SGPA list and the profile CGPA.
func (s *Service) GPAHistory(ctx context.Context, studentID string) (*GPAHistory, error) {
	profile, err := s.store.Profile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.Results(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := &GPAHistory{
		StudentID:          profile.ID,
		EntryType:          profile.EntryType,
		CGPA:               profile.CGPA,
		ActiveBacklogCount: profile.ActiveBacklogCount,
		Semesters:          make([]SemesterGPA, 0, len(results)),
	}
	for _, r := range results {
		out.Semesters = append(out.Semesters, SemesterGPA{
			Semester:      r.Semester,
			SGPA:          r.SGPA,
			EarnedCredits: r.EarnedCredits,
			TotalCredits:  r.TotalCredits,
			Completed:     r.Completed,
		})
	}
	return out, nil
}

// SemesterResult returns one finalized semester result.
func (s *Service) SemesterResult(ctx context.Context, studentID string, semester int) (*shared.SemesterResult, error) {
	results, err := s.store.Results(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Semester == semester {
			return &results[i], nil
		}
	}
	return nil, shared.Errorf(shared.CodeNotFound,
		"no finalized result for student %s semester %d", studentID, semester)
}

// ============================================================================
// Subject statistics
// ============================================================================

// SubjectStats summarizes graded outcomes for one (subject, semester).
type SubjectStats struct {
	SubjectCode       string         `json:"subject_code"`
	Semester          int            `json:"semester"`
	GradedCount       int            `json:"graded_count"`
	PassCount         int            `json:"pass_count"`
	PassRate          float64        `json:"pass_rate"`
	MeanTotal         float64        `json:"mean_total"`
	MedianTotal       float64        `json:"median_total"`
	StdDevTotal       float64        `json:"std_dev_total"`
	HighestTotal      float64        `json:"highest_total"`
	LowestTotal       float64        `json:"lowest_total"`
	MeanAttendance    float64        `json:"mean_attendance"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// SubjectStatistics computes summary statistics over all graded
// assessments for a subject in a semester.
func (s *Service) SubjectStatistics(ctx context.Context, subjectCode string, semester int) (*SubjectStats, error) {
	records, err := s.store.AssessmentsBySubject(ctx, subjectCode, semester)
	if err != nil {
		return nil, err
	}

	out := &SubjectStats{
		SubjectCode:       subjectCode,
		Semester:          semester,
		GradeDistribution: make(map[string]int),
	}

	var totals, attendance []float64
	for _, rec := range records {
		if rec.Grade == "" {
			continue
		}
		out.GradedCount++
		out.GradeDistribution[rec.Grade]++
		if rec.IsPassed {
			out.PassCount++
		}
		// AB outcomes count in the distribution and pass rate but carry
		// no total to aggregate.
		if rec.TotalMarks != nil {
			totals = append(totals, *rec.TotalMarks)
		}
		attendance = append(attendance, rec.AttendancePercentage)
	}

	if out.GradedCount == 0 {
		return out, nil
	}

	out.PassRate = round2(float64(out.PassCount) / float64(out.GradedCount) * 100)
	out.MeanTotal = statOrZero(stats.Mean(totals))
	out.MedianTotal = statOrZero(stats.Median(totals))
	out.StdDevTotal = statOrZero(stats.StandardDeviationSample(totals))
	out.HighestTotal = statOrZero(stats.Max(totals))
	out.LowestTotal = statOrZero(stats.Min(totals))
	out.MeanAttendance = statOrZero(stats.Mean(attendance))
	return out, nil
}

// ============================================================================
// Backlog summary
// ============================================================================

// SubjectBacklogCount is the backlog tally for one subject.
type SubjectBacklogCount struct {
	SubjectCode string `json:"subject_code"`
	Open        int    `json:"open"`
	Cleared     int    `json:"cleared"`
}

// BacklogSummary is the department-wide backlog view.
type BacklogSummary struct {
	TotalOpen       int                   `json:"total_open"`
	TotalCleared    int                   `json:"total_cleared"`
	AverageAttempts float64               `json:"average_attempts"`
	BySubject       []SubjectBacklogCount `json:"by_subject"`
}

// BacklogSummary aggregates backlog records across the department.
func (s *Service) BacklogSummary(ctx context.Context) (*BacklogSummary, error) {
	records, err := s.store.Backlogs(ctx, false)
	if err != nil {
		return nil, err
	}

	out := &BacklogSummary{}
	bySubject := make(map[string]*SubjectBacklogCount)
	totalAttempts := 0

	for _, rec := range records {
		entry, ok := bySubject[rec.SubjectCode]
		if !ok {
			entry = &SubjectBacklogCount{SubjectCode: rec.SubjectCode}
			bySubject[rec.SubjectCode] = entry
		}
		if rec.IsCleared {
			out.TotalCleared++
			entry.Cleared++
		} else {
			out.TotalOpen++
			entry.Open++
		}
		totalAttempts += len(rec.Attempts)
	}

	if len(records) > 0 {
		out.AverageAttempts = round2(float64(totalAttempts) / float64(len(records)))
	}
	for _, entry := range bySubject {
		out.BySubject = append(out.BySubject, *entry)
	}
	sort.Slice(out.BySubject, func(i, j int) bool {
		return out.BySubject[i].SubjectCode < out.BySubject[j].SubjectCode
	})
	return out, nil
}

// ============================================================================
// Mentor utilization
// ============================================================================

// MentorUtilization is one mentor's load view.
type MentorUtilization struct {
	MentorID    string  `json:"mentor_id"`
	Department  string  `json:"department"`
	Assigned    int     `json:"assigned"`
	Regular     int     `json:"regular"`
	Lateral     int     `json:"lateral"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization_percent"`
}

// MentorUtilizationReport returns the load of every mentor roster.
func (s *Service) MentorUtilizationReport(ctx context.Context) ([]MentorUtilization, error) {
	assignments, err := s.store.Assignments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MentorUtilization, 0, len(assignments))
	for _, a := range assignments {
		u := MentorUtilization{
			MentorID:   a.ID,
			Department: a.Department,
			Assigned:   len(a.AssignedStudents),
			Regular:    len(a.RegularStudents),
			Lateral:    len(a.LateralStudents),
			Capacity:   a.MaxStudentCount,
		}
		if a.MaxStudentCount > 0 {
			u.Utilization = round2(float64(u.Assigned) / float64(a.MaxStudentCount) * 100)
		}
		out = append(out, u)
	}
	return out, nil
}

// ============================================================================
// helpers
// ============================================================================

func statOrZero(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return round2(v)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
