package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork is returned when the backend couldn't be reached,
	// or its response couldn't be read
	ErrNetwork = errors.New("network error")

	// ErrAuth is returned for 401 and 403 responses
	ErrAuth = errors.New("access denied")

	// ErrValidation is returned when a request fails client-side checks,
	// or the backend rejects it as invalid
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx backend response.
// Detail is the backend's own message, passed through verbatim
type APIError struct {
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}

	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Unwrap maps the status code onto the error taxonomy
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Message returns a human-readable message for any client error
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}

	switch {
	case errors.Is(err, ErrAuth):
		return "access denied"
	case errors.Is(err, ErrNetwork):
		return "unable to reach the server, please try again"
	default:
		return err.Error()
	}
}
