// Package export renders report views into Excel workbooks for
// download. It only formats; all numbers come in already derived.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// ExcelWriter builds xlsx workbooks from report views.
type ExcelWriter struct{}

// NewExcelWriter creates an ExcelWriter.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// WriteGPAHistory writes a student's semester-by-semester GPA sheet.
func (w *ExcelWriter) WriteGPAHistory(out io.Writer, history *reports.GPAHistory) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "GPA History"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := boldHeader(f)
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Student")
	f.SetCellValue(sheet, "B1", history.StudentID)
	f.SetCellValue(sheet, "A2", "Entry")
	f.SetCellValue(sheet, "B2", string(history.EntryType))
	f.SetCellValue(sheet, "A3", "CGPA")
	f.SetCellValue(sheet, "B3", history.CGPA)
	f.SetCellValue(sheet, "A4", "Active Backlogs")
	f.SetCellValue(sheet, "B4", history.ActiveBacklogCount)

	headers := []string{"Semester", "SGPA", "Earned Credits", "Total Credits", "Completed"}
	if err := writeRow(f, sheet, 6, headers); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A6", "E6", headerStyle)

	for i, sem := range history.Semesters {
		row := 7 + i
		if err := writeRow(f, sheet, row, []interface{}{
			sem.Semester, sem.SGPA, sem.EarnedCredits, sem.TotalCredits, sem.Completed,
		}); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "E", 16)
	return f.Write(out)
}

// WriteSemesterResult writes a finalized semester's grade card.
func (w *ExcelWriter) WriteSemesterResult(out io.Writer, res *shared.SemesterResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Semester %d", res.Semester)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := boldHeader(f)
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Student")
	f.SetCellValue(sheet, "B1", res.StudentID)
	f.SetCellValue(sheet, "A2", "SGPA")
	f.SetCellValue(sheet, "B2", res.SGPA)
	f.SetCellValue(sheet, "A3", "Credits")
	f.SetCellValue(sheet, "B3", fmt.Sprintf("%d / %d", res.EarnedCredits, res.TotalCredits))

	headers := []string{"Subject", "Credits", "Total Marks", "Grade", "Grade Points", "Passed"}
	if err := writeRow(f, sheet, 5, headers); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A5", "F5", headerStyle)

	for i, sub := range res.Subjects {
		row := 6 + i
		// AB subjects carry no total; leave the cell blank.
		var total interface{} = ""
		if sub.TotalMarks != nil {
			total = *sub.TotalMarks
		}
		if err := writeRow(f, sheet, row, []interface{}{
			sub.SubjectCode, sub.Credits, total, sub.Grade, sub.GradePoints, sub.IsPassed,
		}); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "F", 14)
	return f.Write(out)
}

// WriteMentorUtilization writes the mentor load sheet.
func (w *ExcelWriter) WriteMentorUtilization(out io.Writer, rows []reports.MentorUtilization) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Mentor Utilization"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := boldHeader(f)
	if err != nil {
		return err
	}

	headers := []string{"Mentor", "Department", "Assigned", "Regular", "Lateral", "Capacity", "Utilization %"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	for i, u := range rows {
		row := 2 + i
		if err := writeRow(f, sheet, row, []interface{}{
			u.MentorID, u.Department, u.Assigned, u.Regular, u.Lateral, u.Capacity, u.Utilization,
		}); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "G", 16)
	return f.Write(out)
}

// WriteSubjectStatistics writes a single subject's outcome summary.
func (w *ExcelWriter) WriteSubjectStatistics(out io.Writer, st *reports.SubjectStats) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Subject Statistics"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	pairs := [][2]interface{}{
		{"Subject", st.SubjectCode},
		{"Semester", st.Semester},
		{"Graded", st.GradedCount},
		{"Passed", st.PassCount},
		{"Pass Rate %", st.PassRate},
		{"Mean Total", st.MeanTotal},
		{"Median Total", st.MedianTotal},
		{"Std Dev", st.StdDevTotal},
		{"Highest", st.HighestTotal},
		{"Lowest", st.LowestTotal},
		{"Mean Attendance %", st.MeanAttendance},
	}
	for i, p := range pairs {
		row := 1 + i
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p[1])
	}

	headerStyle, err := boldHeader(f)
	if err != nil {
		return err
	}
	gradeRow := len(pairs) + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", gradeRow), "Grade")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", gradeRow), "Count")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", gradeRow), fmt.Sprintf("B%d", gradeRow), headerStyle)

	row := gradeRow + 1
	for _, grade := range []string{
		shared.GradeS, shared.GradeA, shared.GradeB, shared.GradeC,
		shared.GradeD, shared.GradeE, shared.GradeF, shared.GradeAbsent,
	} {
		count, ok := st.GradeDistribution[grade]
		if !ok {
			continue
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), grade)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), count)
		row++
	}

	f.SetColWidth(sheet, "A", "B", 20)
	return f.Write(out)
}

// writeRow writes values left to right starting at column A.
func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func boldHeader(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
}
