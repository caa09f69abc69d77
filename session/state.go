package session

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/ris/client"
	"github.com/sig-0/ris/eligibility"
	"github.com/sig-0/ris/rates"
	"github.com/sig-0/ris/storage/types"
)

// EventKind identifies which part of the state changed
type EventKind string

const (
	EventRates        EventKind = "rates"
	EventReference    EventKind = "reference"
	EventProfile      EventKind = "profile"
	EventUnreadCount  EventKind = "unread_count"
	EventConversation EventKind = "conversation"
	EventPayment      EventKind = "payment"
)

// Event is a single state change, carrying the new value.
// Seq increases with every change, in the order the changes were stored
type Event struct {
	At   time.Time `json:"at"`
	Data any       `json:"data"`
	Kind EventKind `json:"kind"`
	Seq  uint64    `json:"seq"`
}

// RatesSnapshot is the current rate table, and when it was fetched
type RatesSnapshot struct {
	FetchedAt time.Time   `json:"fetched_at"`
	Table     rates.Table `json:"rates"`
}

// PaymentUpdate is the latest known state of a tracked PIX charge
type PaymentUpdate struct {
	Status        *client.PixStatus `json:"status"`
	TransactionID string            `json:"transaction_id"`
}

// State is the shared application context.
// Every value is replaced wholesale; readers never observe a partial update
type State struct {
	logger *slog.Logger

	rates        *RatesSnapshot
	reference    *types.ExchangeRate
	profile      *client.Profile
	conversation *client.Conversation
	payments     map[string]*client.PixStatus
	subscribers  map[xid.ID]chan Event

	unreadCount int
	seq         uint64

	mux    sync.RWMutex
	subMux sync.Mutex
}

// NewState creates a new, empty application state
func NewState(opts ...StateOption) *State {
	s := &State{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		payments:    make(map[string]*client.PixStatus),
		subscribers: make(map[xid.ID]chan Event),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Rates returns the current rate table. The bool is false before the first fetch
func (s *State) Rates() (RatesSnapshot, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if s.rates == nil {
		return RatesSnapshot{}, false
	}

	return *s.rates, true
}

// SetRates replaces the rate table
func (s *State) SetRates(table rates.Table, fetchedAt time.Time) {
	snapshot := &RatesSnapshot{
		Table:     table,
		FetchedAt: fetchedAt.UTC(),
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	s.rates = snapshot
	s.publish(EventRates, *snapshot)
}

// Reference returns the official reference rate, if any
func (s *State) Reference() *types.ExchangeRate {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if s.reference == nil {
		return nil
	}

	cp := *s.reference

	return &cp
}

// SetReference replaces the official reference rate
func (s *State) SetReference(rate *types.ExchangeRate) {
	cp := *rate

	s.mux.Lock()
	defer s.mux.Unlock()

	s.reference = &cp
	s.publish(EventReference, cp)
}

// Profile returns the cached profile, if loaded
func (s *State) Profile() *client.Profile {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if s.profile == nil {
		return nil
	}

	cp := *s.profile

	return &cp
}

// SetProfile replaces the cached profile
func (s *State) SetProfile(p *client.Profile) {
	cp := *p

	s.mux.Lock()
	defer s.mux.Unlock()

	s.profile = &cp
	s.publish(EventProfile, cp)
}

// Status returns the cached verification status.
// An account without a loaded profile is treated as unverified
func (s *State) Status() eligibility.Status {
	s.mux.RLock()
	defer s.mux.RUnlock()

	if s.profile == nil || s.profile.Status == nil {
		return eligibility.Unverified{}
	}

	return s.profile.Status
}

// UnreadCount returns the unread notification count
func (s *State) UnreadCount() int {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return s.unreadCount
}

// SetUnreadCount replaces the unread notification count.
// Unchanged counts aren't published
func (s *State) SetUnreadCount(count int) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.unreadCount == count {
		return
	}

	s.unreadCount = count
	s.publish(EventUnreadCount, count)
}

// Conversation returns the cached support thread, if loaded
func (s *State) Conversation() *client.Conversation {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return copyConversation(s.conversation)
}

// SetConversation replaces the cached support thread
func (s *State) SetConversation(c *client.Conversation) {
	cp := copyConversation(c)

	s.mux.Lock()
	defer s.mux.Unlock()

	s.conversation = cp
	s.publish(EventConversation, copyConversation(cp))
}

// AppendMessage adds a sent message to the cached support thread
func (s *State) AppendMessage(msg *client.SupportMessage) {
	s.mux.Lock()
	defer s.mux.Unlock()

	next := copyConversation(s.conversation)
	if next == nil {
		next = &client.Conversation{}
	}

	next.Messages = append(next.Messages, msg)
	s.conversation = next

	s.publish(EventConversation, copyConversation(next))
}

// Payment returns the latest known state of a tracked PIX charge
func (s *State) Payment(transactionID string) (*client.PixStatus, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	status, ok := s.payments[transactionID]
	if !ok {
		return nil, false
	}

	cp := *status

	return &cp, true
}

// SetPayment replaces the state of a tracked PIX charge
func (s *State) SetPayment(transactionID string, status *client.PixStatus) {
	cp := *status

	s.mux.Lock()
	defer s.mux.Unlock()

	next := maps.Clone(s.payments)
	next[transactionID] = &cp
	s.payments = next

	s.publish(EventPayment, PaymentUpdate{
		TransactionID: transactionID,
		Status:        &cp,
	})
}

// Subscribe registers a listener for state events.
// Events are dropped for a listener that can't keep up; it never blocks the writer
func (s *State) Subscribe(buffer int) (xid.ID, <-chan Event) {
	if buffer < 1 {
		buffer = 1
	}

	id := xid.New()
	ch := make(chan Event, buffer)

	s.subMux.Lock()
	s.subscribers[id] = ch
	s.subMux.Unlock()

	return id, ch
}

// Unsubscribe removes the listener, and closes its channel
func (s *State) Unsubscribe(id xid.ID) {
	s.subMux.Lock()
	defer s.subMux.Unlock()

	ch, ok := s.subscribers[id]
	if !ok {
		return
	}

	delete(s.subscribers, id)
	close(ch)
}

// publish notifies every subscriber of the change.
// It is called with mux held, so events go out in the order the changes were stored
func (s *State) publish(kind EventKind, data any) {
	s.seq++

	event := Event{
		At:   time.Now().UTC(),
		Kind: kind,
		Data: data,
		Seq:  s.seq,
	}

	s.subMux.Lock()
	defer s.subMux.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Warn(
				"dropping event for slow subscriber",
				"id", id.String(),
				"kind", string(kind),
			)
		}
	}
}

// copyConversation copies the thread, so the cached one is never mutated in place
func copyConversation(c *client.Conversation) *client.Conversation {
	if c == nil {
		return nil
	}

	return &client.Conversation{
		ConversationID: c.ConversationID,
		Messages:       slices.Clone(c.Messages),
	}
}
