// Package util holds the gateway's JSON response and error mapping
// helpers.
package util

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}

	// If payload is already a map with a "success" key, use it directly
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResponse := JSONError{
		Success: false,
		Code:    code,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// HandleError translates domain errors to appropriate HTTP responses.
// This is the single mapping point between the engine's error taxonomy
// and HTTP status codes.
func HandleError(w http.ResponseWriter, err error) {
	code, ok := shared.CodeOf(err)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "", "Internal server error")
		return
	}

	var de *shared.DomainError
	errors.As(err, &de)
	message := de.Message

	switch code {
	case shared.CodeFormat, shared.CodeInvalidYear, shared.CodeUnknownDepartment,
		shared.CodeInvalidSerial, shared.CodeValidation:
		WriteJSONError(w, http.StatusBadRequest, string(code), message)
	case shared.CodeUnauthenticated:
		WriteJSONError(w, http.StatusUnauthorized, string(code), message)
	case shared.CodeForbidden:
		WriteJSONError(w, http.StatusForbidden, string(code), message)
	case shared.CodeNotFound:
		WriteJSONError(w, http.StatusNotFound, string(code), message)
	case shared.CodeConflict, shared.CodeCapacity:
		WriteJSONError(w, http.StatusConflict, string(code), message)
	case shared.CodeNoMentorsAvailable:
		WriteJSONError(w, http.StatusUnprocessableEntity, string(code), message)
	default:
		WriteJSONError(w, http.StatusInternalServerError, string(code), message)
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
