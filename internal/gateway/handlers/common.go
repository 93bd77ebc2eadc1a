// Package handlers contains the HTTP handlers exposed by the gateway.
// Handlers decode and authorize requests, call into the engine services,
// and map domain errors onto HTTP responses.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/Sahanabu/MentorAI-sub000/internal/auth"
	"github.com/Sahanabu/MentorAI-sub000/internal/gateway/util"
	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

type contextKey string

// ClaimsKey is the request context key the auth middleware stores the
// validated JWT claims under.
const ClaimsKey contextKey = "claims"

// getClaims returns the authenticated user's claims, or nil.
func getClaims(r *http.Request) *auth.CustomClaims {
	claims, ok := r.Context().Value(ClaimsKey).(*auth.CustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireRole checks the caller holds one of the given roles, writing a
// 403 otherwise.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) *auth.CustomClaims {
	claims := getClaims(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, string(shared.CodeUnauthenticated), "Authentication required")
		return nil
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims
		}
	}
	util.WriteJSONError(w, http.StatusForbidden, string(shared.CodeForbidden), "Access denied for role "+claims.Role)
	return nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
