// Package limiter bounds client work: a per-key in-flight guard and an outbound request pacer.
package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Guard allows at most one outstanding operation per key.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGuard constructs an empty Guard.
func NewGuard() *Guard { return &Guard{held: map[string]struct{}{}} }

// TryAcquire marks key busy; false if it already is.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

// Release frees key. Releasing a free key is a no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
}

// Busy reports whether key is held, for disabling controls.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

// Pacer spaces outbound requests with a token bucket. A nil Pacer never waits.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer returns nil when rps <= 0 (unlimited).
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.lim.Wait(ctx)
}
