// Package lifecycle attaches the injection run to page events.
//
// The site is a turbolinks application: full loads fire the legacy
// "page:load" event, client-side navigations fire "turbolinks:load", and a
// script may attach before or after DOMContentLoaded. Attach covers all three
// and runs immediately when the document has already finished loading.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Trigger names what caused a run. Values are the DOM event names.
type Trigger string

const (
	TriggerPageLoad       Trigger = "page:load"
	TriggerSoftNavigation Trigger = "turbolinks:load"
	TriggerDOMReady       Trigger = "DOMContentLoaded"
	TriggerImmediate      Trigger = "immediate"
)

// Events are the DOM events a Source must be able to deliver.
var Events = []Trigger{TriggerPageLoad, TriggerSoftNavigation, TriggerDOMReady}

// ReadyState mirrors document.readyState.
type ReadyState string

const (
	ReadyLoading     ReadyState = "loading"
	ReadyInteractive ReadyState = "interactive"
	ReadyComplete    ReadyState = "complete"
)

// Source is the event surface of one document.
type Source interface {
	ReadyState(ctx context.Context) (ReadyState, error)
	On(t Trigger, fn func(Trigger))
}

// RunFunc performs one injection run.
type RunFunc func(ctx context.Context, t Trigger) error

// Bootstrap serialises runs: one at a time, each to completion, like handlers
// on the page's UI thread. It is the containment boundary for run failures.
type Bootstrap struct {
	run    RunFunc
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a Bootstrap around run.
func New(run RunFunc, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{run: run, logger: logger}
}

// Attach registers the run on src. When the document is past loading the run
// fires synchronously before Attach returns.
func (b *Bootstrap) Attach(ctx context.Context, src Source) error {
	handler := func(t Trigger) { b.Invoke(ctx, t) }

	src.On(TriggerPageLoad, handler)
	src.On(TriggerSoftNavigation, handler)

	state, err := src.ReadyState(ctx)
	if err != nil {
		return fmt.Errorf("lifecycle: ready state: %w", err)
	}
	if state != ReadyLoading {
		b.Invoke(ctx, TriggerImmediate)
		return nil
	}
	src.On(TriggerDOMReady, handler)
	return nil
}

// Invoke runs once. Errors and panics are logged, never returned to the
// event source.
func (b *Bootstrap) Invoke(ctx context.Context, t Trigger) {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("lifecycle: run panicked", "trigger", t, "panic", r)
		}
	}()

	if err := b.run(ctx, t); err != nil {
		b.logger.Error("lifecycle: run failed", "trigger", t, "error", err)
	}
}
