package lifecycle

import (
	"context"
	"sync"
)

// Dispatcher is an in-memory Source. Handlers run synchronously in Fire.
type Dispatcher struct {
	mu        sync.Mutex
	state     ReadyState
	listeners map[Trigger][]func(Trigger)
}

// NewDispatcher creates a Dispatcher in the given ready state.
func NewDispatcher(state ReadyState) *Dispatcher {
	return &Dispatcher{
		state:     state,
		listeners: make(map[Trigger][]func(Trigger)),
	}
}

func (d *Dispatcher) ReadyState(context.Context) (ReadyState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, nil
}

func (d *Dispatcher) On(t Trigger, fn func(Trigger)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[t] = append(d.listeners[t], fn)
}

// SetReadyState moves the document to a new ready state.
func (d *Dispatcher) SetReadyState(s ReadyState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Fire delivers t to its listeners and returns how many ran.
func (d *Dispatcher) Fire(t Trigger) int {
	d.mu.Lock()
	fns := append(([]func(Trigger))(nil), d.listeners[t]...)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
	return len(fns)
}

// Listening reports whether any handler is registered for t.
func (d *Dispatcher) Listening(t Trigger) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[t]) > 0
}
