// Package sink defines where run outcomes are reported.
package sink

import (
	"context"

	"github.com/hazyhaar/shikirating/rating"
)

// Sink receives one Outcome per pipeline run. Implementations must be safe
// for concurrent use: several tabs report independently.
type Sink interface {
	Send(ctx context.Context, out rating.Outcome) error
	Close() error
}
