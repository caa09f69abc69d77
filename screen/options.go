package screen

import "log/slog"

type Option func(m *Manager)

// WithLogger specifies the logger for the manager
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}
