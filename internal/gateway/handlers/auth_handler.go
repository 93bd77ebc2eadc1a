package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Sahanabu/MentorAI-sub000/internal/auth"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// AuthHandler exposes login and token introspection.
type AuthHandler struct {
	Auth *auth.Service
}

// RESTLoginRequest mirrors the JSON input for POST /auth/login
type RESTLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req RESTLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, string(shared.CodeValidation), "Invalid JSON body")
		return
	}

	result, err := h.Auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// Validate handles GET /auth/validate
// Returns the claims of the presented token.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authentication required")
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user_id": claims.UserID,
		"role":    claims.Role,
	})
}
