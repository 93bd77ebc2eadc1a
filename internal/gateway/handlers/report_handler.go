package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/export"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exposes summary views and their Excel exports.
type ReportHandler struct {
	Reports *reports.Service
	Excel   *export.ExcelWriter
}

// SubjectStatistics handles GET /reports/subjects/{subject_code}
// Query Params: semester (required)
func (h *ReportHandler) SubjectStatistics(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	subjectCode := chi.URLParam(r, "subject_code")
	semester, err := queryInt(r, "semester", 0)
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester query parameter required (1-8)")
		return
	}

	st, err := h.Reports.SubjectStatistics(r.Context(), subjectCode, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, st)
}

// BacklogSummary handles GET /reports/backlogs
func (h *ReportHandler) BacklogSummary(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	summary, err := h.Reports.BacklogSummary(r.Context())
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, summary)
}

// MentorUtilization handles GET /reports/mentors
func (h *ReportHandler) MentorUtilization(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	rows, err := h.Reports.MentorUtilizationReport(r.Context())
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rows)
}

// ExportGPAHistory handles GET /reports/students/{student_id}/export
// Streams an xlsx workbook.
func (h *ReportHandler) ExportGPAHistory(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	history, err := h.Reports.GPAHistory(r.Context(), studentID)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-gpa.xlsx", studentID))
	// Headers are already out; a write error here just truncates the download.
	_ = h.Excel.WriteGPAHistory(w, history)
}

// ExportSemesterResult handles GET /reports/students/{student_id}/semesters/{semester}/export
// Streams a finalized semester's grade card as xlsx.
func (h *ReportHandler) ExportSemesterResult(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	semester, err := strconv.Atoi(chi.URLParam(r, "semester"))
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester must be 1-8")
		return
	}

	res, err := h.Reports.SemesterResult(r.Context(), studentID, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-sem%d-result.xlsx", studentID, semester))
	_ = h.Excel.WriteSemesterResult(w, res)
}

// ExportMentorUtilization handles GET /reports/mentors/export
func (h *ReportHandler) ExportMentorUtilization(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	rows, err := h.Reports.MentorUtilizationReport(r.Context())
	if err != nil {
		util.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=mentor-utilization.xlsx")
	_ = h.Excel.WriteMentorUtilization(w, rows)
}

// ExportSubjectStatistics handles GET /reports/subjects/{subject_code}/export
func (h *ReportHandler) ExportSubjectStatistics(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	subjectCode := chi.URLParam(r, "subject_code")
	semester, err := queryInt(r, "semester", 0)
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester query parameter required (1-8)")
		return
	}

	st, err := h.Reports.SubjectStatistics(r.Context(), subjectCode, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-sem%d-stats.xlsx", subjectCode, semester))
	_ = h.Excel.WriteSubjectStatistics(w, st)
}
