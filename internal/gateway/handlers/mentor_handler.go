package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/mentor"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MentorHandler exposes mentor roster management.
type MentorHandler struct {
	Balancer *mentor.Balancer
}

// RESTDistributeRequest mirrors the JSON input for POST /mentors/distribute
type RESTDistributeRequest struct {
	Department   string   `json:"department"`
	Semester     int      `json:"semester"`
	MentorIDs    []string `json:"mentor_ids"`
	MaxPerMentor int      `json:"max_per_mentor,omitempty"`
}

// RESTAssignRequest mirrors the JSON input for POST /mentors/{mentor_id}/students
type RESTAssignRequest struct {
	StudentIDs []string `json:"student_ids"`
}

// RESTReassignRequest mirrors the JSON input for POST /mentors/reassign
type RESTReassignRequest struct {
	StudentID   string `json:"student_id"`
	NewMentorID string `json:"new_mentor_id"`
}

// RESTCapacityRequest mirrors the JSON input for PUT /mentors/{mentor_id}/capacity
type RESTCapacityRequest struct {
	MaxStudentCount int `json:"max_student_count"`
}

// Distribute handles POST /mentors/distribute
// Splits a cohort evenly across the given mentors.
func (h *MentorHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	var req RESTDistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	report, err := h.Balancer.AutoDistribute(r.Context(), req.Department, req.Semester, req.MentorIDs, req.MaxPerMentor)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}

// Assign handles POST /mentors/{mentor_id}/students
func (h *MentorHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	mentorID := chi.URLParam(r, "mentor_id")

	var req RESTAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	assignment, err := h.Balancer.Assign(r.Context(), mentorID, req.StudentIDs)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, assignment)
}

// Remove handles DELETE /mentors/{mentor_id}/students/{student_id}
func (h *MentorHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	mentorID := chi.URLParam(r, "mentor_id")
	studentID := chi.URLParam(r, "student_id")

	if err := h.Balancer.Remove(r.Context(), studentID, mentorID); err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "student removed from mentor roster",
	})
}

// Reassign handles POST /mentors/reassign
// Moves a student between mentors atomically.
func (h *MentorHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	var req RESTReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	if err := h.Balancer.Reassign(r.Context(), req.StudentID, req.NewMentorID); err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "student reassigned",
	})
}

// UpdateCapacity handles PUT /mentors/{mentor_id}/capacity
func (h *MentorHandler) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	if requireRole(w, r, shared.RoleHOD, shared.RoleAdmin) == nil {
		return
	}

	mentorID := chi.URLParam(r, "mentor_id")

	var req RESTCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	assignment, err := h.Balancer.UpdateCapacity(r.Context(), mentorID, req.MaxStudentCount)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, assignment)
}
