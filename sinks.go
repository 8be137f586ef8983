package shikirating

import (
	"fmt"
	"io"

	"github.com/hazyhaar/shikirating/internal/sink"
)

// Sink is the output interface for run outcomes.
type Sink = sink.Sink

// OutcomeFunc is called for each outcome.
type OutcomeFunc = sink.OutcomeFunc

// NewStdoutSink creates a JSON-lines sink. Skipped runs are written only
// when skipped is true.
func NewStdoutSink(w io.Writer, skipped bool) Sink {
	return sink.NewStdout(w, sink.WithSkipped(skipped))
}

// NewCallbackSink creates an in-process sink.
func NewCallbackSink(fn OutcomeFunc) Sink {
	return sink.NewCallback(fn)
}

// SinksFromConfig builds the configured sinks. Stdout sinks write to w.
func SinksFromConfig(cfg *Config, w io.Writer) ([]Sink, error) {
	var out []Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, NewStdoutSink(w, sc.Skipped))
		default:
			return nil, fmt.Errorf("shikirating: unknown sink type %q", sc.Type)
		}
	}
	return out, nil
}
