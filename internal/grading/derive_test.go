package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

func f(v float64) *float64 { return &v }

func TestScale_GradeFor(t *testing.T) {
	scale := DefaultScale()

	tests := []struct {
		total  float64
		grade  string
		points float64
	}{
		{100, "S", 10},
		{90, "S", 10},
		{89.5, "A", 9},
		{80, "A", 9},
		{79, "B", 8},
		{70, "B", 8},
		{60, "C", 7},
		{50, "D", 6},
		{40, "E", 5},
		{39.9, "F", 0},
		{0, "F", 0},
		{104, "S", 10}, // totals above 100 are surfaced, not clamped
	}
	for _, tt := range tests {
		grade, points := scale.GradeFor(tt.total)
		assert.Equal(t, tt.grade, grade, "total %.1f", tt.total)
		assert.Equal(t, tt.points, points, "total %.1f", tt.total)
	}
}

func TestDerive_BestOfTwo(t *testing.T) {
	scale := DefaultScale()

	t.Run("three internals averages top two", func(t *testing.T) {
		rec := &shared.AssessmentRecord{Internal1: f(10), Internal2: f(18), Internal3: f(22)}
		require.NoError(t, Derive(rec, scale))
		require.NotNil(t, rec.BestOfTwoInternal)
		assert.Equal(t, 20.0, *rec.BestOfTwoInternal)
	})

	t.Run("missing third treated as zero for ranking", func(t *testing.T) {
		rec := &shared.AssessmentRecord{Internal1: f(20), Internal2: f(10)}
		require.NoError(t, Derive(rec, scale))
		require.NotNil(t, rec.BestOfTwoInternal)
		assert.Equal(t, 15.0, *rec.BestOfTwoInternal)
	})

	t.Run("fewer than two internals leaves field unset", func(t *testing.T) {
		rec := &shared.AssessmentRecord{Internal1: f(20)}
		require.NoError(t, Derive(rec, scale))
		assert.Nil(t, rec.BestOfTwoInternal)
	})

	t.Run("fractional average rounds to two decimals", func(t *testing.T) {
		rec := &shared.AssessmentRecord{Internal1: f(21), Internal2: f(22), Internal3: f(0)}
		require.NoError(t, Derive(rec, scale))
		assert.Equal(t, 21.5, *rec.BestOfTwoInternal)
	})
}

func TestDerive_Attendance(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{ClassesAttended: 37, TotalClasses: 45}
	require.NoError(t, Derive(rec, scale))
	assert.Equal(t, 82.0, rec.AttendancePercentage)

	rec = &shared.AssessmentRecord{ClassesAttended: 0, TotalClasses: 0}
	require.NoError(t, Derive(rec, scale))
	assert.Equal(t, 0.0, rec.AttendancePercentage)
}

func TestDerive_TotalAndGrade(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{
		StudentID:       "1CR21CS042",
		SubjectCode:     "CS301",
		Internal1:       f(18),
		Internal2:       f(22),
		Internal3:       f(10),
		AssignmentTotal: 15,
		LabTotal:        8,
		FinalExam:       f(80),
	}
	require.NoError(t, Derive(rec, scale))

	// 80*0.5 + 20 + 15 + 8 = 83
	require.NotNil(t, rec.TotalMarks)
	assert.Equal(t, 83.0, *rec.TotalMarks)
	assert.Equal(t, "A", rec.Grade)
	assert.Equal(t, 9.0, rec.GradePoints)
	assert.True(t, rec.IsPassed)
}

func TestDerive_FailingTotal(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{
		Internal1: f(5),
		Internal2: f(8),
		FinalExam: f(40),
	}
	require.NoError(t, Derive(rec, scale))

	// 40*0.5 + 6.5 + 0 + 0 = 26.5 -> 27 -> F
	assert.Equal(t, 27.0, *rec.TotalMarks)
	assert.Equal(t, shared.GradeF, rec.Grade)
	assert.False(t, rec.IsPassed)
}

func TestDerive_AbsentFinal(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{
		Internal1:       f(18),
		Internal2:       f(20),
		ClassesAttended: 30,
		TotalClasses:    40,
		FinalAbsent:     true,
		// stale derived state from a previous run
		TotalMarks: f(85),
		Grade:      "A",
		IsPassed:   true,
	}
	require.NoError(t, Derive(rec, scale))

	assert.Nil(t, rec.TotalMarks)
	assert.Equal(t, shared.GradeAbsent, rec.Grade)
	assert.Equal(t, 0.0, rec.GradePoints)
	assert.False(t, rec.IsPassed)
	assert.Equal(t, 75.0, rec.AttendancePercentage)

	// Absence needs no internals at all.
	rec = &shared.AssessmentRecord{FinalAbsent: true}
	require.NoError(t, Derive(rec, scale))
	assert.Equal(t, shared.GradeAbsent, rec.Grade)
}

func TestDerive_FinalWithoutInternals(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{Internal1: f(20), FinalExam: f(75)}
	err := Derive(rec, scale)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}

func TestDerive_NoFinalClearsDerivedFields(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{
		Internal1: f(20),
		Internal2: f(22),
		// stale derived state from a previous run
		TotalMarks:  f(90),
		Grade:       "S",
		GradePoints: 10,
		IsPassed:    true,
	}
	require.NoError(t, Derive(rec, scale))

	assert.Nil(t, rec.TotalMarks)
	assert.Empty(t, rec.Grade)
	assert.Equal(t, 0.0, rec.GradePoints)
	assert.False(t, rec.IsPassed)
}

func TestDerive_Idempotent(t *testing.T) {
	scale := DefaultScale()

	rec := &shared.AssessmentRecord{
		Internal1:       f(18),
		Internal2:       f(22),
		AssignmentTotal: 15,
		LabTotal:        8,
		ClassesAttended: 40,
		TotalClasses:    45,
		FinalExam:       f(80),
	}
	require.NoError(t, Derive(rec, scale))
	first := *rec

	require.NoError(t, Derive(rec, scale))
	assert.Equal(t, *first.TotalMarks, *rec.TotalMarks)
	assert.Equal(t, first.Grade, rec.Grade)
	assert.Equal(t, *first.BestOfTwoInternal, *rec.BestOfTwoInternal)
	assert.Equal(t, first.AttendancePercentage, rec.AttendancePercentage)
}
