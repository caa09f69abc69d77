package ingest

import (
	"log/slog"
	"time"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithQueryInterval specifies how often the orchestrator checks for due tasks.
// Defaults to 1s, which is fine for the 5s polling tasks the client runs
func WithQueryInterval(q time.Duration) Option {
	return func(o *Orchestrator) {
		o.queryInterval = q
	}
}

// WithApplyTimeout specifies the deadline for applying a single task result.
// Defaults to 10s
func WithApplyTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.applyTimeout = d
	}
}
