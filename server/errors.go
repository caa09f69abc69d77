package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/eligibility"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/screen"
	"github.com/sig-0/ris/session"
)

// writeFailure maps an action error onto a status code and a user-facing message
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var denied *eligibility.DeniedError
	if errors.As(err, &denied) {
		writeJSON(w, http.StatusForbidden, &ErrorResponse{
			Error:    denied.Error(),
			Redirect: denied.Decision.Redirect,
			Prompt:   denied.Decision.Prompt,
		})

		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Debug(
			"request failed",
			"status", status,
			"err", err,
		)
	}

	writeJSON(w, status, &ErrorResponse{
		Error: client.Message(err),
	})
}

func statusFor(err error) int {
	var apiErr *client.APIError

	switch {
	case errors.Is(err, session.ErrNoRates):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrInsufficientBalance),
		errors.Is(err, client.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, client.ErrNotFound),
		errors.Is(err, screen.ErrUnknownScreen):
		return http.StatusNotFound
	case errors.Is(err, client.ErrNetwork),
		errors.Is(err, rates.ErrInvalidRate),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
