package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
	"github.com/Sahanabu/MentorAI-sub000/internal/usn"
)

// USNHandler exposes identifier parsing.
type USNHandler struct {
	Parser *usn.Parser
}

// Parse handles GET /usn/{usn}
// Decomposes a university serial number and reports the student's
// expected current semester.
func (h *USNHandler) Parse(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "usn")

	parsed, err := h.Parser.Parse(raw)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"usn":              parsed.USN,
		"admission_year":   parsed.AdmissionYear,
		"department":       parsed.Department,
		"department_name":  parsed.DepartmentName,
		"serial":           parsed.Serial,
		"entry_type":       parsed.EntryType,
		"start_semester":   shared.StartSemester(parsed.EntryType),
		"current_semester": h.Parser.CurrentSemester(parsed.AdmissionYear, parsed.EntryType),
	})
}
