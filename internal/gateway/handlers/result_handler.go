package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/gpa"
	"github.com/Sahanabu/MentorAI-sub000/internal/reports"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// ResultHandler exposes semester finalization, GPA reads, and graduation.
type ResultHandler struct {
	Aggregator *gpa.Aggregator
	Reports    *reports.Service
}

// Finalize handles POST /results/{student_id}/finalize
// Query Params: semester (required)
func (h *ResultHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	semester, err := queryInt(r, "semester", 0)
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester query parameter required (1-8)")
		return
	}

	result, err := h.Aggregator.FinalizeSemester(r.Context(), studentID, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// History handles GET /results/{student_id}
// Students may read their own history; staff may read anyone's.
func (h *ResultHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authentication required")
		return
	}

	studentID := chi.URLParam(r, "student_id")
	if claims.Role == shared.RoleStudent && claims.UserID != studentID {
		util.WriteJSONError(w, http.StatusForbidden, string(shared.CodeForbidden), "Students can only view their own results")
		return
	}

	history, err := h.Reports.GPAHistory(r.Context(), studentID)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, history)
}

// Recompute handles POST /results/{student_id}/recompute-cgpa
func (h *ResultHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	cgpa, err := h.Aggregator.RecomputeCGPA(r.Context(), studentID)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cgpa":    cgpa,
	})
}

// Graduate handles POST /results/{student_id}/graduate
func (h *ResultHandler) Graduate(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	profile, err := h.Aggregator.Graduate(r.Context(), studentID)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, profile)
}
