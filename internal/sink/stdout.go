package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/shikirating/rating"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu      sync.Mutex
	enc     *json.Encoder
	skipped bool
}

// StdoutOption configures a Stdout sink.
type StdoutOption func(*Stdout)

// WithSkipped also writes outcomes of runs that changed nothing. Off by
// default: every navigation to a non-title page produces one.
func WithSkipped(on bool) StdoutOption {
	return func(s *Stdout) { s.skipped = on }
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer, opts ...StdoutOption) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	s := &Stdout{enc: json.NewEncoder(w)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Stdout) Send(_ context.Context, out rating.Outcome) error {
	if out.State == rating.StateSkipped && !s.skipped {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "outcome", Data: out})
}

func (s *Stdout) Close() error { return nil }

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
