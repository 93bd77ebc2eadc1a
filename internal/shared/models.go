// ============================================================================
// internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// Enumerations and Constants
// ============================================================================

// EntryType classifies how a student was admitted to the programme.
type EntryType string

const (
	// EntryRegular students are admitted at semester 1.
	EntryRegular EntryType = "REGULAR"
	// EntryLateral students enter directly at semester 3 (diploma holders).
	EntryLateral EntryType = "LATERAL"
)

// Letter grades on the department scale, best to worst.
const (
	GradeS      = "S"
	GradeA      = "A"
	GradeB      = "B"
	GradeC      = "C"
	GradeD      = "D"
	GradeE      = "E"
	GradeF      = "F"
	GradeAbsent = "AB"
)

// Subject types
const (
	SubjectTheory   = "theory"
	SubjectLab      = "lab"
	SubjectCombined = "combined"
)

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleHOD     = "hod"
	RoleAdmin   = "admin"
)

// Semester bounds for the 4-year programme.
const (
	FirstSemester = 1
	LastSemester  = 8
)

// IsPassingGrade reports whether a letter grade earns credits.
// Absent and Failed subjects contribute nothing to SGPA/CGPA.
func IsPassingGrade(grade string) bool {
	return grade != "" && grade != GradeF && grade != GradeAbsent
}

// StartSemester returns the first semester that counts for an entry type.
// Lateral-entry students never accrue credits for semesters 1-2.
func StartSemester(entry EntryType) int {
	if entry == EntryLateral {
		return 3
	}
	return FirstSemester
}

// ============================================================================
// Curriculum Models
// ============================================================================

// SubjectRecord describes one subject in a published curriculum scheme.
// Immutable once the scheme is published.
type SubjectRecord struct {
	ID            string    `bson:"_id" json:"id"`
	Code          string    `bson:"code" json:"code"`
	Name          string    `bson:"name" json:"name"`
	Semester      int       `bson:"semester" json:"semester"`
	Credits       int       `bson:"credits" json:"credits"`
	SubjectType   string    `bson:"subject_type" json:"subject_type"` // theory, lab, combined
	PassThreshold float64   `bson:"pass_threshold" json:"pass_threshold"`
	SchemeYear    int       `bson:"scheme_year" json:"scheme_year"`
	Published     bool      `bson:"published" json:"published"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// ============================================================================
// Assessment Models
// ============================================================================

// AssessmentRecord holds raw marks for one (student, subject, semester) and
// the fields derived from them. Derived fields are recomputed by
// grading.Derive every time any raw input changes; they are never edited
// directly. Records are amended, never deleted.
type AssessmentRecord struct {
	ID          string `bson:"_id" json:"id"`
	StudentID   string `bson:"student_id" json:"student_id"`
	SubjectCode string `bson:"subject_code" json:"subject_code"`
	Semester    int    `bson:"semester" json:"semester"`

	// Raw inputs
	Internal1       *float64 `bson:"internal1,omitempty" json:"internal1,omitempty"` // 0-25
	Internal2       *float64 `bson:"internal2,omitempty" json:"internal2,omitempty"` // 0-25
	Internal3       *float64 `bson:"internal3,omitempty" json:"internal3,omitempty"` // 0-25
	AssignmentTotal float64  `bson:"assignment_total" json:"assignment_total"`       // 0-20
	LabTotal        float64  `bson:"lab_total" json:"lab_total"`                     // 0-10
	ClassesAttended int      `bson:"classes_attended" json:"classes_attended"`
	TotalClasses    int      `bson:"total_classes" json:"total_classes"`
	BehaviorScore   float64  `bson:"behavior_score" json:"behavior_score"`           // 0-10, default 8
	FinalExam       *float64 `bson:"final_exam,omitempty" json:"final_exam,omitempty"` // 0-100
	FinalAbsent     bool     `bson:"final_absent" json:"final_absent"`               // absent for the final exam

	// Derived fields
	BestOfTwoInternal    *float64 `bson:"best_of_two_internal,omitempty" json:"best_of_two_internal,omitempty"`
	AttendancePercentage float64  `bson:"attendance_percentage" json:"attendance_percentage"`
	TotalMarks           *float64 `bson:"total_marks,omitempty" json:"total_marks,omitempty"`
	Grade                string   `bson:"grade,omitempty" json:"grade,omitempty"`
	GradePoints          float64  `bson:"grade_points" json:"grade_points"`
	IsPassed             bool     `bson:"is_passed" json:"is_passed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasFinal reports whether a final exam score has been recorded.
func (a *AssessmentRecord) HasFinal() bool {
	return a.FinalExam != nil
}

// HasOutcome reports whether the final exam has a terminal outcome for
// this attempt: either a recorded score or a recorded absence.
func (a *AssessmentRecord) HasOutcome() bool {
	return a.FinalExam != nil || a.FinalAbsent
}

// ============================================================================
// Backlog Models
// ============================================================================

// BacklogAttempt is one retake of a failed subject.
type BacklogAttempt struct {
	AttemptNumber int       `bson:"attempt_number" json:"attempt_number"`
	ExamDate      time.Time `bson:"exam_date" json:"exam_date"`
	MarksObtained float64   `bson:"marks_obtained" json:"marks_obtained"`
	IsPassed      bool      `bson:"is_passed" json:"is_passed"`
	Grade         string    `bson:"grade" json:"grade"`
}

// BacklogRecord tracks a failed subject across retakes until cleared.
// Created the first time a subject is failed; cleared is terminal.
type BacklogRecord struct {
	ID          string           `bson:"_id" json:"id"`
	StudentID   string           `bson:"student_id" json:"student_id"`
	SubjectCode string           `bson:"subject_code" json:"subject_code"`
	Semester    int              `bson:"semester" json:"semester"`
	Attempts    []BacklogAttempt `bson:"attempts" json:"attempts"`
	IsCleared   bool             `bson:"is_cleared" json:"is_cleared"`
	ClearedDate *time.Time       `bson:"cleared_date,omitempty" json:"cleared_date,omitempty"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}

// TotalAttempts returns the number of recorded retakes.
func (b *BacklogRecord) TotalAttempts() int { return len(b.Attempts) }

// ============================================================================
// Result Models
// ============================================================================

// GradedSubject is one subject line inside a finalized semester result.
// TotalMarks is nil for subjects graded AB.
type GradedSubject struct {
	SubjectCode string   `bson:"subject_code" json:"subject_code"`
	SubjectName string   `bson:"subject_name,omitempty" json:"subject_name,omitempty"`
	Credits     int      `bson:"credits" json:"credits"`
	TotalMarks  *float64 `bson:"total_marks,omitempty" json:"total_marks,omitempty"`
	Grade       string   `bson:"grade" json:"grade"`
	GradePoints float64  `bson:"grade_points" json:"grade_points"`
	IsPassed    bool     `bson:"is_passed" json:"is_passed"`
}

// SemesterResult is the finalized outcome of one (student, semester).
// Credits and grades are immutable after finalization except for corrections.
type SemesterResult struct {
	ID                string          `bson:"_id" json:"id"`
	StudentID         string          `bson:"student_id" json:"student_id"`
	Semester          int             `bson:"semester" json:"semester"`
	Subjects          []GradedSubject `bson:"subjects" json:"subjects"`
	TotalCredits      int             `bson:"total_credits" json:"total_credits"`
	EarnedCredits     int             `bson:"earned_credits" json:"earned_credits"`
	TotalCreditPoints float64         `bson:"total_credit_points" json:"total_credit_points"`
	SGPA              float64         `bson:"sgpa" json:"sgpa"`
	Completed         bool            `bson:"completed" json:"completed"`
	FinalizedAt       time.Time       `bson:"finalized_at" json:"finalized_at"`
}

// ============================================================================
// Student Profile Models
// ============================================================================

// StudentAcademicProfile is the per-student rollup document. The USN is the
// document id. CGPA and ActiveBacklogCount are derived counters; they are
// only ever written by the GPA aggregator and the backlog tracker, from their
// authoritative sources. MentorID is only ever written by the mentor
// balancer, atomically with the assignment set it mirrors.
type StudentAcademicProfile struct {
	ID                 string     `bson:"_id" json:"usn"`
	Name               string     `bson:"name" json:"name"`
	AdmissionYear      int        `bson:"admission_year" json:"admission_year"`
	Department         string     `bson:"department" json:"department"`
	Serial             int        `bson:"serial" json:"serial"`
	EntryType          EntryType  `bson:"entry_type" json:"entry_type"`
	CurrentSemester    int        `bson:"current_semester" json:"current_semester"`
	CGPA               float64    `bson:"cgpa" json:"cgpa"`
	ActiveBacklogCount int        `bson:"active_backlog_count" json:"active_backlog_count"`
	MentorID           string     `bson:"mentor_id,omitempty" json:"mentor_id,omitempty"`
	Graduated          bool       `bson:"graduated" json:"graduated"`
	GraduatedAt        *time.Time `bson:"graduated_at,omitempty" json:"graduated_at,omitempty"`
	IsActive           bool       `bson:"is_active" json:"is_active"`
	CreatedAt          time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at" json:"updated_at"`
}

// ============================================================================
// Mentor Models
// ============================================================================

// MentorAssignment is one mentor's roster for a department. The mentor id is
// the document id, so there is exactly one assignment row per mentor.
// Invariants: len(AssignedStudents) <= MaxStudentCount, and
// RegularStudents + LateralStudents is a disjoint partition of
// AssignedStudents by entry type.
type MentorAssignment struct {
	ID               string    `bson:"_id" json:"mentor_id"`
	Department       string    `bson:"department" json:"department"`
	AssignedStudents []string  `bson:"assigned_students" json:"assigned_students"`
	RegularStudents  []string  `bson:"regular_students" json:"regular_students"`
	LateralStudents  []string  `bson:"lateral_students" json:"lateral_students"`
	MaxStudentCount  int       `bson:"max_student_count" json:"max_student_count"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Holds reports whether the student is on this mentor's roster.
func (m *MentorAssignment) Holds(studentID string) bool {
	for _, id := range m.AssignedStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// ============================================================================
// User Models
// ============================================================================

// User represents a user account (student, teacher, HOD, or admin).
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`
	Name         string    `bson:"name" json:"name"`
	Department   string    `bson:"department,omitempty" json:"department,omitempty"`
	StudentID    string    `bson:"student_id,omitempty" json:"student_id,omitempty"` // USN for students
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
