package sessionkit

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork indicates the backend could not be reached at all.
	ErrNetwork = errors.New("backend unreachable")
	// ErrUnauthorized indicates the backend rejected the presented token (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates the backend rejected the request with
	// field-level validation messages.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates a login was rejected by the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTwoFactorInvalid indicates a two-factor code was rejected.
	ErrTwoFactorInvalid = errors.New("invalid two-factor code")
	// ErrBackendUnavailable indicates the backend answered with a 5xx status.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNoRefreshToken indicates a refresh was requested with no refresh
	// token in the store. No network call is made in this case.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrNoPendingTwoFactor indicates VerifyTwoFactor was called without a
	// preceding login that required a second factor.
	ErrNoPendingTwoFactor = errors.New("no pending two-factor challenge")
	// ErrManagerClosed indicates an operation was invoked after Close.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrBuilderUsed indicates Build was called twice on one builder.
	ErrBuilderUsed = errors.New("builder already used")
)

// APIError carries a backend error response: HTTP status, the
// human-readable message shown to the user, and optional field-level
// validation messages. It wraps one of the taxonomy sentinels so that
// errors.Is works across the Backend boundary.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string

	kind error
}

// NewAPIError builds an APIError wrapping the given taxonomy sentinel.
func NewAPIError(kind error, status int, message string, fields map[string]string) *APIError {
	return &APIError{Status: status, Message: message, Fields: fields, kind: kind}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	if e.kind != nil {
		return fmt.Sprintf("backend: %s (status %d)", e.kind.Error(), e.Status)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// errorMessage extracts the user-facing message for Session.Error:
// the backend-provided message when present, the given fallback otherwise.
func errorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
