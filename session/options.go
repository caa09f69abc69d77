package session

import (
	"log/slog"

	"github.com/sig-0/ris/storage"
)

type StateOption func(s *State)

// WithStateLogger specifies the logger for the state
func WithStateLogger(l *slog.Logger) StateOption {
	return func(s *State) {
		s.logger = l
	}
}

type Option func(s *Service)

// WithLogger specifies the logger for the service
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithStorage specifies the rate history store.
// Without one, fetched tables aren't recorded
func WithStorage(store storage.Storage) Option {
	return func(s *Service) {
		s.storage = store
	}
}
