package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/eligibility"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/storage"
	"github.com/sig-0/ris/storage/types"
)

var (
	// ErrNoRates is returned when a conversion is requested before the first rate fetch
	ErrNoRates = errors.New("rates are not available yet")

	// ErrInsufficientBalance is returned when a send exceeds the cached balance
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Backend is the subset of the RIS backend API the session drives
type Backend interface {
	FetchRates(ctx context.Context) (rates.Table, error)
	Me(ctx context.Context) (*client.Profile, error)
	UnreadCount(ctx context.Context) (int, error)
	Conversation(ctx context.Context) (*client.Conversation, error)
	SendSupportMessage(ctx context.Context, text, image string) (*client.SupportMessage, error)
	CreatePix(ctx context.Context, req *client.PixRequest) (*client.PixPayment, error)
	PixStatus(ctx context.Context, transactionID string) (*client.PixStatus, error)
	CreateWithdrawal(ctx context.Context, req *client.WithdrawalRequest) (*client.Transaction, error)

	Notifications(ctx context.Context) ([]*client.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
	Transactions(ctx context.Context, txType string) ([]*client.Transaction, error)
	Policies(ctx context.Context) (*client.Policies, error)
	PolicyStatus(ctx context.Context) (*client.PolicyStatus, error)
	AcceptPolicies(ctx context.Context) (*client.PolicyAcceptance, error)
}

// Service runs the user-initiated actions against the backend,
// and commits their results to the shared state.
// Unlike background tasks, every failure is returned to the caller
type Service struct {
	backend Backend
	state   *State
	storage storage.Storage
	logger  *slog.Logger
}

// NewService creates a new session service
func NewService(backend Backend, state *State, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		state:   state,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the shared application state
func (s *Service) State() *State {
	return s.state
}

// Backend returns the backend the service drives
func (s *Service) Backend() Backend {
	return s.backend
}

// RefreshRates fetches the rate table and replaces the current one.
// On failure the previous table is kept
func (s *Service) RefreshRates(ctx context.Context) (RatesSnapshot, error) {
	table, err := s.backend.FetchRates(ctx)
	if err != nil {
		return RatesSnapshot{}, fmt.Errorf("unable to refresh rates, %w", err)
	}

	fetchedAt := time.Now().UTC()

	if err := s.CommitRates(ctx, table, fetchedAt); err != nil {
		return RatesSnapshot{}, err
	}

	snapshot, _ := s.state.Rates()

	return snapshot, nil
}

// CommitRates replaces the rate table, and records it in the rate history
func (s *Service) CommitRates(ctx context.Context, table rates.Table, fetchedAt time.Time) error {
	if err := table.Validate(); err != nil {
		return err
	}

	s.state.SetRates(table, fetchedAt)

	if s.storage == nil {
		return nil
	}

	// History is best-effort; the new table is already live
	for _, rate := range TableRates(table, fetchedAt) {
		if err := s.storage.SaveExchangeRate(ctx, rate); err != nil {
			s.logger.Error(
				"unable to save exchange rate",
				"base", rate.Base,
				"target", rate.Target,
				"err", err,
			)
		}
	}

	return nil
}

// CommitReference replaces the official reference rate, and records it
func (s *Service) CommitReference(ctx context.Context, rate *types.ExchangeRate) {
	s.state.SetReference(rate)

	if s.storage == nil {
		return
	}

	if err := s.storage.SaveExchangeRate(ctx, rate); err != nil {
		s.logger.Error(
			"unable to save reference rate",
			"source", rate.Source,
			"err", err,
		)
	}
}

// WarmStart loads the last recorded rate table, so conversions work before the first fetch.
// It is a no-op without storage, or when the history is incomplete
func (s *Service) WarmStart(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	source := types.Source(types.SourceRIS)

	page, err := s.storage.RateAsOf(ctx, &types.RateQuery{Source: &source}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("unable to load recorded rates, %w", err)
	}

	if page == nil {
		return nil
	}

	table, fetchedAt, ok := TableFromRates(page.Results)
	if !ok {
		return nil
	}

	// A live fetch may have landed in the meantime
	if _, loaded := s.state.Rates(); loaded {
		return nil
	}

	s.state.SetRates(table, fetchedAt)

	s.logger.Info(
		"warm started rates from history",
		"fetched_at", fetchedAt,
	)

	return nil
}

// Convert recomputes an amount pair against the current rate table
func (s *Service) Convert(
	raw string,
	direction rates.Direction,
	driven rates.Field,
) (*rates.AmountPair, error) {
	snapshot, ok := s.state.Rates()
	if !ok {
		return nil, ErrNoRates
	}

	pair := rates.NewAmountPair(direction)

	switch driven {
	case rates.Output:
		pair.EditOutput(raw, snapshot.Table)
	default:
		pair.EditInput(raw, snapshot.Table)
	}

	if err := pair.Err(); err != nil {
		return nil, fmt.Errorf("unable to convert amount, %w", err)
	}

	return pair, nil
}

// RefreshProfile fetches the profile, including the verification status
func (s *Service) RefreshProfile(ctx context.Context) (*client.Profile, error) {
	profile, err := s.backend.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to refresh profile, %w", err)
	}

	s.state.SetProfile(profile)

	return profile, nil
}

// RefreshUnreadCount fetches the unread notification count
func (s *Service) RefreshUnreadCount(ctx context.Context) (int, error) {
	count, err := s.backend.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to fetch unread count, %w", err)
	}

	s.state.SetUnreadCount(count)

	return count, nil
}

// RefreshConversation fetches the support thread
func (s *Service) RefreshConversation(ctx context.Context) (*client.Conversation, error) {
	conversation, err := s.backend.Conversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch conversation, %w", err)
	}

	s.state.SetConversation(conversation)

	return s.state.Conversation(), nil
}

// SendSupportMessage sends a support message, and appends it to the cached thread
func (s *Service) SendSupportMessage(
	ctx context.Context,
	text string,
	image string,
) (*client.SupportMessage, error) {
	msg, err := s.backend.SendSupportMessage(ctx, text, image)
	if err != nil {
		return nil, fmt.Errorf("unable to send support message, %w", err)
	}

	s.state.AppendMessage(msg)

	return msg, nil
}

// Recharge creates a PIX charge. Only verified accounts may recharge
func (s *Service) Recharge(ctx context.Context, req *client.PixRequest) (*client.PixPayment, error) {
	if err := eligibility.Require(s.state.Status(), eligibility.ActionRecharge); err != nil {
		return nil, err
	}

	payment, err := s.backend.CreatePix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to create PIX payment, %w", err)
	}

	s.state.SetPayment(payment.TransactionID, &client.PixStatus{
		Status: client.PixStatusPending,
	})

	return payment, nil
}

// CheckPayment fetches the state of a PIX charge, and commits it
func (s *Service) CheckPayment(ctx context.Context, transactionID string) (*client.PixStatus, error) {
	status, profile, err := s.FetchPayment(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	s.CommitPayment(transactionID, status, profile)

	return status, nil
}

// FetchPayment fetches the state of a PIX charge, without committing it.
// A completed charge moved the balance, so the profile is fetched along with it.
// The profile is nil when the charge isn't completed, or when it can't be fetched
func (s *Service) FetchPayment(
	ctx context.Context,
	transactionID string,
) (*client.PixStatus, *client.Profile, error) {
	status, err := s.backend.PixStatus(ctx, transactionID)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to fetch PIX status, %w", err)
	}

	if status.Status != client.PixStatusCompleted {
		return status, nil, nil
	}

	profile, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Warn(
			"unable to refresh balance after payment",
			"transaction_id", transactionID,
			"err", err,
		)

		return status, nil, nil
	}

	return status, profile, nil
}

// CommitPayment records a PIX charge state, and the refreshed profile if any
func (s *Service) CommitPayment(transactionID string, status *client.PixStatus, profile *client.Profile) {
	s.state.SetPayment(transactionID, status)

	if profile != nil {
		s.state.SetProfile(profile)
	}
}

// Send sends RIS to a beneficiary. Only verified accounts may send,
// and the amount is checked against the cached balance
func (s *Service) Send(ctx context.Context, req *client.WithdrawalRequest) (*client.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", client.ErrValidation)
	}

	if err := eligibility.Require(s.state.Status(), eligibility.ActionSend); err != nil {
		return nil, err
	}

	if profile := s.state.Profile(); profile != nil && req.AmountRIS.GreaterThan(profile.BalanceRIS) {
		return nil, fmt.Errorf(
			"%w: available %s RIS",
			ErrInsufficientBalance,
			rates.Format(profile.BalanceRIS),
		)
	}

	tx, err := s.backend.CreateWithdrawal(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to create withdrawal, %w", err)
	}

	// The balance moved; refresh it
	if _, err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn(
			"unable to refresh balance after send",
			"transaction_id", tx.TransactionID,
			"err", err,
		)
	}

	return tx, nil
}
