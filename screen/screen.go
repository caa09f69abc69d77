// Package screen ties background tasks to the screens that need them.
// A focused screen runs its tasks; blurring it cancels them,
// and any result that lands afterwards is dropped
package screen

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/rs/xid"

	"github.com/sig-0/ris/ingest"
)

// Well-known screens
const (
	// App is the always-on scope, focused for the whole process lifetime
	App = "app"

	// Home is the wallet home screen, refreshing the rate table and the unread badge
	Home = "home"

	// Support is the support chat screen
	Support = "support"

	// Pix is the PIX payment screen, polling the charges it created
	Pix = "pix"
)

var (
	ErrUnknownScreen   = errors.New("unknown screen")
	errDuplicateScreen = errors.New("screen already registered")
)

// Manager tracks the registered screens and their lifecycle
type Manager struct {
	o      *ingest.Orchestrator
	logger *slog.Logger

	scopes map[string]*ingest.Scope
	mux    sync.RWMutex
}

// NewManager creates a new screen manager on top of the orchestrator
func NewManager(o *ingest.Orchestrator, opts ...Option) *Manager {
	m := &Manager{
		o:      o,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		scopes: make(map[string]*ingest.Scope),
	}

	// Apply the options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register adds a screen, with the static tasks it runs while focused
func (m *Manager) Register(name string, tasks ...ingest.Task) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if _, ok := m.scopes[name]; ok {
		return fmt.Errorf("%w: %s", errDuplicateScreen, name)
	}

	m.scopes[name] = m.o.NewScope(name, tasks...)

	return nil
}

// Focus starts the screen's tasks. Focusing a focused screen is a no-op
func (m *Manager) Focus(name string) error {
	scope, err := m.scope(name)
	if err != nil {
		return err
	}

	if err := scope.Start(); err != nil {
		return err
	}

	m.logger.Debug("screen focused", "screen", name)

	return nil
}

// Blur cancels every task of the screen
func (m *Manager) Blur(name string) error {
	scope, err := m.scope(name)
	if err != nil {
		return err
	}

	scope.Close()

	m.logger.Debug("screen blurred", "screen", name)

	return nil
}

// Go runs an extra task for as long as the screen stays focused
func (m *Manager) Go(name string, task ingest.Task) (xid.ID, error) {
	scope, err := m.scope(name)
	if err != nil {
		return xid.NilID(), err
	}

	id, err := scope.Go(task)
	if err != nil {
		return xid.NilID(), fmt.Errorf("unable to run %s on screen %s, %w", task.Name(), name, err)
	}

	return id, nil
}

// Focused returns true if the screen is focused
func (m *Manager) Focused(name string) bool {
	scope, err := m.scope(name)
	if err != nil {
		return false
	}

	return scope.Active()
}

// Screens lists the registered screens, sorted
func (m *Manager) Screens() []string {
	m.mux.RLock()
	defer m.mux.RUnlock()

	out := make([]string, 0, len(m.scopes))
	for name := range m.scopes {
		out = append(out, name)
	}

	slices.Sort(out)

	return out
}

// BlurAll cancels the tasks of every screen
func (m *Manager) BlurAll() {
	for _, name := range m.Screens() {
		_ = m.Blur(name)
	}
}

func (m *Manager) scope(name string) (*ingest.Scope, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	scope, ok := m.scopes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}

	return scope, nil
}
