package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu    sync.Mutex
	calls []Trigger
	err   error
	panic bool
}

func (r *recorder) run(_ context.Context, t Trigger) error {
	r.mu.Lock()
	r.calls = append(r.calls, t)
	r.mu.Unlock()
	if r.panic {
		panic("boom")
	}
	return r.err
}

func (r *recorder) triggers() []Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Trigger(nil), r.calls...)
}

func TestAttach_AlreadyLoadedRunsImmediately(t *testing.T) {
	for _, state := range []ReadyState{ReadyInteractive, ReadyComplete} {
		rec := &recorder{}
		d := NewDispatcher(state)
		if err := New(rec.run, quiet).Attach(context.Background(), d); err != nil {
			t.Fatal(err)
		}

		got := rec.triggers()
		if len(got) != 1 || got[0] != TriggerImmediate {
			t.Fatalf("%s: calls %v, want [immediate]", state, got)
		}
		if d.Listening(TriggerDOMReady) {
			t.Errorf("%s: DOMContentLoaded should not be registered", state)
		}
		if !d.Listening(TriggerPageLoad) || !d.Listening(TriggerSoftNavigation) {
			t.Errorf("%s: page:load and turbolinks:load must be registered", state)
		}
	}
}

func TestAttach_LoadingWaitsForDOMReady(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(ReadyLoading)
	if err := New(rec.run, quiet).Attach(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if len(rec.triggers()) != 0 {
		t.Fatal("must not run while loading")
	}

	d.SetReadyState(ReadyInteractive)
	if n := d.Fire(TriggerDOMReady); n != 1 {
		t.Fatalf("DOMContentLoaded listeners: %d", n)
	}
	d.Fire(TriggerPageLoad)
	d.Fire(TriggerSoftNavigation)

	got := rec.triggers()
	want := []Trigger{TriggerDOMReady, TriggerPageLoad, TriggerSoftNavigation}
	if len(got) != len(want) {
		t.Fatalf("calls %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInvoke_ContainsFailures(t *testing.T) {
	rec := &recorder{err: errors.New("markup changed")}
	b := New(rec.run, quiet)
	b.Invoke(context.Background(), TriggerSoftNavigation)

	rec.panic = true
	b.Invoke(context.Background(), TriggerSoftNavigation)

	if len(rec.triggers()) != 2 {
		t.Fatalf("expected both runs to execute, got %d", len(rec.triggers()))
	}
}

func TestInvoke_Serialised(t *testing.T) {
	var active, peak int
	var mu sync.Mutex
	run := func(context.Context, Trigger) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	b := New(run, quiet)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Invoke(context.Background(), TriggerSoftNavigation)
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("runs overlapped: peak %d", peak)
	}
}

type brokenSource struct{ *Dispatcher }

func (brokenSource) ReadyState(context.Context) (ReadyState, error) {
	return "", errors.New("target closed")
}

func TestAttach_ReadyStateError(t *testing.T) {
	rec := &recorder{}
	err := New(rec.run, quiet).Attach(context.Background(), brokenSource{NewDispatcher(ReadyLoading)})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(rec.triggers()) != 0 {
		t.Fatal("no run expected")
	}
}
