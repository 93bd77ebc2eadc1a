package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/backlog"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// BacklogHandler exposes the backlog lifecycle.
type BacklogHandler struct {
	Tracker *backlog.Tracker
}

// RESTAttemptRequest mirrors the JSON input for POST /backlogs/{student_id}/{subject_code}/attempts
type RESTAttemptRequest struct {
	Marks    float64    `json:"marks"`
	ExamDate *time.Time `json:"exam_date,omitempty"`
}

// List handles GET /backlogs/{student_id}
// Query Params: open (optional, "true" restricts to open backlogs)
func (h *BacklogHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authentication required")
		return
	}

	studentID := chi.URLParam(r, "student_id")
	if claims.Role == shared.RoleStudent && claims.UserID != studentID {
		util.WriteJSONError(w, http.StatusForbidden, string(shared.CodeForbidden), "Students can only view their own backlogs")
		return
	}

	openOnly := r.URL.Query().Get("open") == "true"
	records, err := h.Tracker.List(r.Context(), studentID, openOnly)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, records)
}

// AddAttempt handles POST /backlogs/{student_id}/{subject_code}/attempts
// Records a supplementary exam outcome; clearing happens automatically on
// a passing score.
func (h *BacklogHandler) AddAttempt(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleTeacher, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	subjectCode := chi.URLParam(r, "subject_code")

	var req RESTAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	examDate := time.Now()
	if req.ExamDate != nil {
		examDate = *req.ExamDate
	}

	rec, err := h.Tracker.AddAttempt(r.Context(), studentID, subjectCode, req.Marks, examDate)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rec)
}

// Clear handles POST /backlogs/{student_id}/{subject_code}/clear
// Manual override for credit transfers and revaluation outcomes.
func (h *BacklogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	studentID := chi.URLParam(r, "student_id")
	subjectCode := chi.URLParam(r, "subject_code")

	rec, err := h.Tracker.Clear(r.Context(), studentID, subjectCode)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rec)
}

// Sweep handles POST /backlogs/sweep
// Opens backlog records for every failed final that does not have one yet.
func (h *BacklogHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	created, err := h.Tracker.Sweep(r.Context())
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"created": created,
	})
}
