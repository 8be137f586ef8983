package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	parts := strings.Split(id, "-")
	if len(parts) != 5 || len(id) != 36 {
		t.Fatalf("UUIDv7: unexpected format %q", id)
	}
	if id[14] != '7' {
		t.Fatalf("UUIDv7: version nibble %q in %q", id[14], id)
	}
}

func TestUUIDv7_Uniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("run_", UUIDv7())()
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("Prefixed: expected prefix 'run_', got %q", id)
	}
	if _, err := Parse(strings.TrimPrefix(id, "run_")); err != nil {
		t.Fatalf("Prefixed: inner ID should stay a UUID: %v", err)
	}
}

func TestSequence(t *testing.T) {
	gen := Prefixed("tab_", Sequence())
	if a, b := gen(), gen(); a != "tab_1" || b != "tab_2" {
		t.Fatalf("Sequence: got %q, %q", a, b)
	}
}

func TestSequence_Concurrent(t *testing.T) {
	gen := Sequence()
	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 800 {
		t.Fatalf("Sequence: %d unique IDs, want 800", len(seen))
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("Parse: expected error for invalid UUID")
	}
}

func TestNew_UsesDefault(t *testing.T) {
	id := New()
	if _, err := Parse(id); err != nil {
		t.Fatalf("New() = %q: %v", id, err)
	}
}
