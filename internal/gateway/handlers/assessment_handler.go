package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/assessment"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/risk"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// AssessmentHandler exposes the marks write path and per-record reads.
type AssessmentHandler struct {
	Assessments *assessment.Service
	Risk        *risk.Service
}

// UpsertMarks handles PUT /assessments
// Teachers record or update marks; derivation runs on every call.
func (h *AssessmentHandler) UpsertMarks(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	var in assessment.MarksInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	rec, err := h.Assessments.UpsertMarks(r.Context(), in)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rec)
}

// Get handles GET /assessments/{student_id}/{subject_code}
// Query Params: semester (required)
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authentication required")
		return
	}

	studentID := chi.URLParam(r, "student_id")
	subjectCode := chi.URLParam(r, "subject_code")

	// Students may only read their own records
	if claims.Role == shared.RoleStudent && claims.UserID != studentID {
		util.WriteJSONError(w, http.StatusForbidden, string(shared.CodeForbidden), "Students can only view their own marks")
		return
	}

	semester, err := queryInt(r, "semester", 0)
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester query parameter required (1-8)")
		return
	}

	rec, err := h.Assessments.Get(r.Context(), studentID, subjectCode, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rec)
}

// Predict handles GET /assessments/{student_id}/{subject_code}/risk
// Relays the scoring service's opinion; degraded predictions are tagged
// with fallback=true.
func (h *AssessmentHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	subjectCode := chi.URLParam(r, "subject_code")

	semester, err := queryInt(r, "semester", 0)
	if err != nil || semester < shared.FirstSemester || semester > shared.LastSemester {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "semester query parameter required (1-8)")
		return
	}

	pred, features, err := h.Risk.PredictFor(r.Context(), studentID, subjectCode, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"prediction": pred,
		"features":   features,
	})
}
