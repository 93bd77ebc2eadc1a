// ============================================================================
// internal/shared/errors.go
// Domain error taxonomy surfaced to API callers
// ============================================================================

package shared

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of domain error. All of these stem from bad
// input or missing records, are deterministic, and are never retried.
type ErrorCode string

const (
	CodeFormat             ErrorCode = "FORMAT_ERROR"
	CodeInvalidYear        ErrorCode = "INVALID_YEAR"
	CodeUnknownDepartment  ErrorCode = "UNKNOWN_DEPARTMENT"
	CodeInvalidSerial      ErrorCode = "INVALID_SERIAL"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeCapacity           ErrorCode = "CAPACITY_ERROR"
	CodeNoMentorsAvailable ErrorCode = "NO_MENTORS_AVAILABLE"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
)

// DomainError carries an ErrorCode plus a human-readable message with enough
// context for the caller to retry with corrected input.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a DomainError with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from an error chain, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
