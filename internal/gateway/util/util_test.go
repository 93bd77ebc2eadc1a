package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		code   shared.ErrorCode
		status int
	}{
		{shared.CodeFormat, http.StatusBadRequest},
		{shared.CodeInvalidYear, http.StatusBadRequest},
		{shared.CodeUnknownDepartment, http.StatusBadRequest},
		{shared.CodeInvalidSerial, http.StatusBadRequest},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeUnauthenticated, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeCapacity, http.StatusConflict},
		{shared.CodeNoMentorsAvailable, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, shared.Errorf(tt.code, "boom"))
			assert.Equal(t, tt.status, rec.Code)

			var body JSONError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, string(tt.code), body.Code)
			assert.Equal(t, "boom", body.Message)
		})
	}
}

func TestHandleError_NonDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("database exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body JSONError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	// Internal details never leak to callers.
	assert.NotContains(t, body.Message, "exploded")
}

func TestWriteJSON_WrapsPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"k": "v"})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
}

func TestExtractToken(t *testing.T) {
	mkReq := func(header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	token, err := ExtractToken(mkReq("Bearer abc.def.ghi"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	// Scheme is case-insensitive.
	token, err = ExtractToken(mkReq("bearer xyz"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = ExtractToken(mkReq(""))
	assert.Error(t, err)

	_, err = ExtractToken(mkReq("Basic abc"))
	assert.Error(t, err)

	_, err = ExtractToken(mkReq("Bearer"))
	assert.Error(t, err)
}
