package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/screen"
	"github.com/sig-0/ris/tasks"
)

// maxBodySize bounds request bodies; support images travel inline as data URIs
const maxBodySize = 10 << 20

var (
	errInvalidBody       = errors.New("invalid request body")
	errAppScreenRequired = errors.New("the app screen can't be blurred")
)

// Profile returns the cached profile, fetching it on first use
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	if profile := s.svc.State().Profile(); profile != nil {
		writeJSON(w, http.StatusOK, profile)

		return
	}

	s.RefreshProfile(w, r)
}

// RefreshProfile fetches the profile, e.g. after a KYC decision
func (s *Server) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.RefreshProfile(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UnreadCount returns the notification badge count
func (s *Server) UnreadCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &UnreadCountResponse{
		Count: s.svc.State().UnreadCount(),
	})
}

// Conversation returns the support thread, fetching it on first use
func (s *Server) Conversation(w http.ResponseWriter, r *http.Request) {
	if conversation := s.svc.State().Conversation(); conversation != nil {
		writeJSON(w, http.StatusOK, conversation)

		return
	}

	conversation, err := s.svc.RefreshConversation(r.Context())
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

// SendSupportMessage sends a text and/or image message to support
func (s *Server) SendSupportMessage(w http.ResponseWriter, r *http.Request) {
	var req SupportMessageRequest

	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	msg, err := s.svc.SendSupportMessage(r.Context(), req.Text, req.Image)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Recharge creates a PIX charge. While the PIX screen is focused,
// the charge is polled in the background until it settles
func (s *Server) Recharge(w http.ResponseWriter, r *http.Request) {
	var req client.PixRequest

	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	if err := rates.CheckAmount(req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	payment, err := s.svc.Recharge(r.Context(), &req)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	resp := &RechargeResponse{
		PixPayment: payment,
	}

	if s.screens != nil && s.screens.Focused(screen.Pix) {
		task := tasks.NewPixStatusTask(s.svc, payment.TransactionID, s.intervals.Pix)

		if _, err := s.screens.Go(screen.Pix, task); err != nil {
			s.logger.Warn(
				"unable to track PIX payment",
				"transaction_id", payment.TransactionID,
				"err", err,
			)
		} else {
			resp.Tracked = true
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// PixStatus checks a PIX charge on the user's request
func (s *Server) PixStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.CheckPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Send sends RIS to a beneficiary
func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	var req client.WithdrawalRequest

	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	if err := rates.CheckAmount(req.AmountRIS); err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	tx, err := s.svc.Send(r.Context(), &req)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

// Screens lists the screens and whether they are focused
func (s *Server) Screens(w http.ResponseWriter, _ *http.Request) {
	resp := &ScreensResponse{
		Results: make([]ScreenResponse, 0),
	}

	if s.screens != nil {
		for _, name := range s.screens.Screens() {
			resp.Results = append(resp.Results, ScreenResponse{
				Name:    name,
				Focused: s.screens.Focused(name),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// FocusScreen starts the background tasks of a screen
func (s *Server) FocusScreen(w http.ResponseWriter, r *http.Request) {
	s.toggleScreen(w, r, true)
}

// BlurScreen stops the background tasks of a screen
func (s *Server) BlurScreen(w http.ResponseWriter, r *http.Request) {
	s.toggleScreen(w, r, false)
}

func (s *Server) toggleScreen(w http.ResponseWriter, r *http.Request, focus bool) {
	name := chi.URLParam(r, "screen")

	if s.screens == nil {
		s.writeFailure(w, fmt.Errorf("%w: %s", screen.ErrUnknownScreen, name))

		return
	}

	if !focus && name == screen.App {
		writeError(w, http.StatusBadRequest, errAppScreenRequired)

		return
	}

	toggle := s.screens.Blur
	if focus {
		toggle = s.screens.Focus
	}

	if err := toggle(name); err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, &ScreenResponse{
		Name:    name,
		Focused: s.screens.Focused(name),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errInvalidBody, err)
	}

	return nil
}
