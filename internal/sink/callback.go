package sink

import (
	"context"

	"github.com/hazyhaar/shikirating/rating"
)

// OutcomeFunc is called for each outcome.
type OutcomeFunc func(ctx context.Context, out rating.Outcome) error

// Callback delivers outcomes as in-process function calls.
type Callback struct {
	fn OutcomeFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn OutcomeFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, out rating.Outcome) error {
	if c.fn != nil {
		return c.fn(ctx, out)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
