// Package tasks holds the recurring background jobs of the wallet:
// the rate refresh, the notification badge, the support chat,
// PIX settlement polling and the official reference rate.
//
// Background failures are logged by the orchestrator and retried;
// they never reach the user
package tasks

import (
	"context"
	"time"

	"github.com/sig-0/ris/ingest"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage/types"
)

const (
	// DefaultRatesInterval is the delay between successful rate refreshes
	DefaultRatesInterval = 30 * time.Second

	// DefaultRatesBackoff is the fixed delay before retrying a failed rate fetch
	DefaultRatesBackoff = 5 * time.Second

	// DefaultNotificationsInterval is the unread badge polling interval
	DefaultNotificationsInterval = 60 * time.Second

	// DefaultSupportInterval is the support chat polling interval
	DefaultSupportInterval = 5 * time.Second

	// DefaultPixInterval is the PIX settlement polling interval
	DefaultPixInterval = 5 * time.Second

	// DefaultReferenceInterval is the reference rate polling interval; the BCV publishes daily
	DefaultReferenceInterval = 24 * time.Hour

	// defaultReferenceBackoff spaces out retries against the BCV website
	defaultReferenceBackoff = 5 * time.Minute
)

// schedule is the fixed timing of a task
type schedule struct {
	interval time.Duration
	backoff  time.Duration
}

func (s schedule) Interval() time.Duration {
	return s.interval
}

func (s schedule) Backoff() time.Duration {
	return s.backoff
}

// RatesTask refreshes the rate table
type RatesTask struct {
	schedule

	svc *session.Service
}

// NewRatesTask creates the rate refresh task
func NewRatesTask(svc *session.Service, interval, backoff time.Duration) *RatesTask {
	return &RatesTask{
		schedule: schedule{interval: interval, backoff: backoff},
		svc:      svc,
	}
}

func (t *RatesTask) Name() string {
	return "rates"
}

func (t *RatesTask) Fetch(ctx context.Context) (ingest.Apply, error) {
	table, err := t.svc.Backend().FetchRates(ctx)
	if err != nil {
		return nil, err
	}

	fetchedAt := time.Now().UTC()

	return func(ctx context.Context) error {
		return t.svc.CommitRates(ctx, table, fetchedAt)
	}, nil
}

// NotificationsTask refreshes the unread notification badge
type NotificationsTask struct {
	schedule

	svc *session.Service
}

// NewNotificationsTask creates the unread badge task
func NewNotificationsTask(svc *session.Service, interval time.Duration) *NotificationsTask {
	return &NotificationsTask{
		schedule: schedule{interval: interval, backoff: interval},
		svc:      svc,
	}
}

func (t *NotificationsTask) Name() string {
	return "notifications"
}

func (t *NotificationsTask) Fetch(ctx context.Context) (ingest.Apply, error) {
	count, err := t.svc.Backend().UnreadCount(ctx)
	if err != nil {
		return nil, err
	}

	return func(context.Context) error {
		t.svc.State().SetUnreadCount(count)

		return nil
	}, nil
}

// SupportTask refreshes the support chat while it is on screen
type SupportTask struct {
	schedule

	svc *session.Service
}

// NewSupportTask creates the support chat task
func NewSupportTask(svc *session.Service, interval time.Duration) *SupportTask {
	return &SupportTask{
		schedule: schedule{interval: interval, backoff: interval},
		svc:      svc,
	}
}

func (t *SupportTask) Name() string {
	return "support"
}

func (t *SupportTask) Fetch(ctx context.Context) (ingest.Apply, error) {
	conversation, err := t.svc.Backend().Conversation(ctx)
	if err != nil {
		return nil, err
	}

	return func(context.Context) error {
		t.svc.State().SetConversation(conversation)

		return nil
	}, nil
}

// PixStatusTask polls a PIX charge until it settles
type PixStatusTask struct {
	schedule

	svc           *session.Service
	transactionID string
}

// NewPixStatusTask creates the settlement polling task for the given charge
func NewPixStatusTask(svc *session.Service, transactionID string, interval time.Duration) *PixStatusTask {
	return &PixStatusTask{
		schedule:      schedule{interval: interval, backoff: interval},
		svc:           svc,
		transactionID: transactionID,
	}
}

func (t *PixStatusTask) Name() string {
	return "pix-status-" + t.transactionID
}

func (t *PixStatusTask) Fetch(ctx context.Context) (ingest.Apply, error) {
	status, profile, err := t.svc.FetchPayment(ctx, t.transactionID)
	if err != nil {
		return nil, err
	}

	return func(context.Context) error {
		t.svc.CommitPayment(t.transactionID, status, profile)

		if status.Settled() {
			return ingest.ErrTaskDone
		}

		return nil
	}, nil
}

// ReferenceFetcher fetches the official reference rate
type ReferenceFetcher interface {
	FetchReference(ctx context.Context) (*types.ExchangeRate, error)
}

// ReferenceTask refreshes the official USD/VES reference rate
type ReferenceTask struct {
	schedule

	svc     *session.Service
	fetcher ReferenceFetcher
}

// NewReferenceTask creates the reference rate task
func NewReferenceTask(svc *session.Service, fetcher ReferenceFetcher, interval time.Duration) *ReferenceTask {
	return &ReferenceTask{
		schedule: schedule{interval: interval, backoff: min(interval, defaultReferenceBackoff)},
		svc:      svc,
		fetcher:  fetcher,
	}
}

func (t *ReferenceTask) Name() string {
	return "reference"
}

func (t *ReferenceTask) Fetch(ctx context.Context) (ingest.Apply, error) {
	rate, err := t.fetcher.FetchReference(ctx)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		t.svc.CommitReference(ctx, rate)

		return nil
	}, nil
}
