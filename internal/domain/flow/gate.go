package flow

import "sync"

// Gate admits at most one in-flight operation per key. Unlike a singleflight
// group it rejects the second caller instead of sharing the first result.
type Gate struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGate constructs an empty gate.
func NewGate() *Gate {
	return &Gate{inflight: make(map[string]struct{})}
}

// TryAcquire claims key. The returned release must be called once the
// operation completes; ok is false when key is already held.
func (g *Gate) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, false
	}
	g.inflight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, true
}

// Busy reports whether key is held.
func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[key]
	return busy
}
