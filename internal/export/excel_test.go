package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

func reopen(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestWriteGPAHistory(t *testing.T) {
	history := &reports.GPAHistory{
		StudentID:          "1CR21CS042",
		EntryType:          shared.EntryRegular,
		CGPA:               8.57,
		ActiveBacklogCount: 1,
		Semesters: []reports.SemesterGPA{
			{Semester: 3, SGPA: 8.2, EarnedCredits: 20, TotalCredits: 22, Completed: true},
			{Semester: 4, SGPA: 8.94, EarnedCredits: 22, TotalCredits: 22, Completed: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter().WriteGPAHistory(&buf, history))

	f := reopen(t, &buf)
	sheet := "GPA History"
	assert.Equal(t, "1CR21CS042", cell(t, f, sheet, "B1"))
	assert.Equal(t, "8.57", cell(t, f, sheet, "B3"))
	assert.Equal(t, "Semester", cell(t, f, sheet, "A6"))
	assert.Equal(t, "3", cell(t, f, sheet, "A7"))
	assert.Equal(t, "8.94", cell(t, f, sheet, "B8"))
}

func TestWriteSemesterResult(t *testing.T) {
	total := 83.0
	res := &shared.SemesterResult{
		StudentID:     "1CR21CS042",
		Semester:      3,
		SGPA:          8.57,
		TotalCredits:  10,
		EarnedCredits: 7,
		Subjects: []shared.GradedSubject{
			{SubjectCode: "CS301", Credits: 4, TotalMarks: &total, Grade: "A", GradePoints: 9, IsPassed: true},
			{SubjectCode: "CS303", Credits: 3, Grade: shared.GradeAbsent},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter().WriteSemesterResult(&buf, res))

	f := reopen(t, &buf)
	sheet := "Semester 3"
	assert.Equal(t, "1CR21CS042", cell(t, f, sheet, "B1"))
	assert.Equal(t, "7 / 10", cell(t, f, sheet, "B3"))
	assert.Equal(t, "CS301", cell(t, f, sheet, "A6"))
	assert.Equal(t, "83", cell(t, f, sheet, "C6"))
	assert.Equal(t, "TRUE", cell(t, f, sheet, "F6"))
	// The absent subject has no total.
	assert.Equal(t, "AB", cell(t, f, sheet, "D7"))
	assert.Equal(t, "", cell(t, f, sheet, "C7"))
}

func TestWriteMentorUtilization(t *testing.T) {
	rows := []reports.MentorUtilization{
		{MentorID: "m1", Department: "CS", Assigned: 3, Regular: 2, Lateral: 1, Capacity: 20, Utilization: 15},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter().WriteMentorUtilization(&buf, rows))

	f := reopen(t, &buf)
	sheet := "Mentor Utilization"
	assert.Equal(t, "Mentor", cell(t, f, sheet, "A1"))
	assert.Equal(t, "m1", cell(t, f, sheet, "A2"))
	assert.Equal(t, "15", cell(t, f, sheet, "G2"))
}

func TestWriteSubjectStatistics(t *testing.T) {
	st := &reports.SubjectStats{
		SubjectCode:       "CS301",
		Semester:          3,
		GradedCount:       4,
		PassCount:         3,
		PassRate:          75,
		MeanTotal:         70.5,
		GradeDistribution: map[string]int{"A": 2, "F": 1, "AB": 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter().WriteSubjectStatistics(&buf, st))

	f := reopen(t, &buf)
	sheet := "Subject Statistics"
	assert.Equal(t, "CS301", cell(t, f, sheet, "B1"))
	assert.Equal(t, "75", cell(t, f, sheet, "B5"))
	// Grade rows follow the fixed scale order: A, F, AB.
	assert.Equal(t, "Grade", cell(t, f, sheet, "A13"))
	assert.Equal(t, "A", cell(t, f, sheet, "A14"))
	assert.Equal(t, "2", cell(t, f, sheet, "B14"))
	assert.Equal(t, "F", cell(t, f, sheet, "A15"))
	assert.Equal(t, "AB", cell(t, f, sheet, "A16"))
}
