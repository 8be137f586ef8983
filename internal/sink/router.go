package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/shikirating/rating"
)

// Router fans out outcomes to all configured sinks. One sink error does not
// block the others: errors are logged and the first encountered is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) Send(ctx context.Context, out rating.Outcome) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, out); err != nil {
			r.logger.Warn("sink: send outcome failed", "run_id", out.RunID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Len returns the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
