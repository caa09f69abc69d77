package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Notifications lists the latest notifications
func (s *Server) Notifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.svc.Notifications(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, &NotificationsResponse{
		Results: notifications,
	})
}

// MarkNotificationRead marks a notification as read, and returns the new badge count
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, err)

		return
	}

	s.UnreadCount(w, r)
}

// MarkAllNotificationsRead clears the notification badge
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkAllNotificationsRead(r.Context()); err != nil {
		s.writeFailure(w, err)

		return
	}

	s.UnreadCount(w, r)
}

// Transactions lists the transaction history, optionally filtered by type
func (s *Server) Transactions(w http.ResponseWriter, r *http.Request) {
	txType := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))

	txs, err := s.svc.Transactions(r.Context(), txType)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, &TransactionsResponse{
		Results: txs,
	})
}

// Policies returns the current terms of use
func (s *Server) Policies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.svc.Policies(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, policies)
}

// PolicyStatus returns whether the user accepted the current terms of use
func (s *Server) PolicyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.PolicyStatus(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, status)
}

// AcceptPolicies accepts the current terms of use
func (s *Server) AcceptPolicies(w http.ResponseWriter, r *http.Request) {
	acceptance, err := s.svc.AcceptPolicies(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, acceptance)
}
