package web

import "sync"

// Gate serializes validation and upload runs per import kind. While a run for
// a kind is in flight, further requests for that kind are rejected instead of
// queued, so two admins cannot race each other on the same data set.
type Gate struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewGate creates an idle gate.
func NewGate() *Gate {
	return &Gate{busy: make(map[string]bool)}
}

// TryAcquire attempts to claim the gate for a kind. It returns false when a
// run for that kind is already in flight.
func (g *Gate) TryAcquire(kind string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[kind] {
		return false
	}
	g.busy[kind] = true
	return true
}

// Release frees the gate for a kind.
func (g *Gate) Release(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, kind)
}
