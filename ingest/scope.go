package ingest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
)

var errScopeClosed = errors.New("scope is not active")

// Scope groups the tasks owned by a single screen lifecycle.
// Start registers them, Close deregisters them and drops their in-flight results
type Scope struct {
	o *Orchestrator

	name  string
	tasks []Task
	ids   []xid.ID

	active bool
	mux    sync.Mutex
}

// NewScope creates a new (inactive) scope for the given static tasks
func (o *Orchestrator) NewScope(name string, tasks ...Task) *Scope {
	return &Scope{
		o:     o,
		name:  name,
		tasks: tasks,
	}
}

// Name returns the scope name
func (s *Scope) Name() string {
	return s.name
}

// Active returns true if the scope was started, and not closed since
func (s *Scope) Active() bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.active
}

// Start registers the scope's static tasks. Starting an active scope is a no-op
func (s *Scope) Start() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.active {
		return nil
	}

	ids := make([]xid.ID, 0, len(s.tasks))

	for _, t := range s.tasks {
		id, err := s.o.Register(t)
		if err != nil {
			// Roll back the partial registration
			for _, registered := range ids {
				s.o.Deregister(registered)
			}

			return fmt.Errorf("unable to start scope %s, %w", s.name, err)
		}

		ids = append(ids, id)
	}

	s.ids = ids
	s.active = true

	return nil
}

// Go registers an additional task for the lifetime of the active scope
func (s *Scope) Go(t Task) (xid.ID, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !s.active {
		return xid.NilID(), errScopeClosed
	}

	id, err := s.o.Register(t)
	if err != nil {
		return xid.NilID(), err
	}

	s.ids = append(s.ids, id)

	return id, nil
}

// Close deregisters every task of the scope. Closing an inactive scope is a no-op
func (s *Scope) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, id := range s.ids {
		s.o.Deregister(id)
	}

	s.ids = nil
	s.active = false
}
