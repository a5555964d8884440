package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("hello")

	old := g.Swap("world")
	if old != "hello" {
		t.Errorf("Swap returned %q, want %q", old, "hello")
	}
	if got := g.Get(); got != "world" {
		t.Errorf("Get() after Swap = %q, want %q", got, "world")
	}
}

func TestGuardWrite(t *testing.T) {
	type status struct {
		running  bool
		warnings int
	}
	g := NewGuard(status{})

	g.Write(func(s *status) {
		s.running = true
		s.warnings++
	})

	got := g.Get()
	if !got.running || got.warnings != 1 {
		t.Errorf("Get() = %+v, want running with 1 warning", got)
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Write(func(v *int) { *v++ })
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 50 {
		t.Errorf("Get() after concurrent writes = %d, want 50", got)
	}
}
