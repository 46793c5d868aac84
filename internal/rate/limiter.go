// Package rate paces outbound Gmail API calls.
package rate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter gates outbound API calls so we respect Gmail rate limits.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Pacer spaces calls at a fixed minimum interval. The first call
// proceeds immediately.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewPacer returns a limiter allowing rps calls per second.
func NewPacer(rps int) *Pacer {
	if rps <= 0 {
		rps = 1
	}
	return &Pacer{interval: time.Second / time.Duration(rps)}
}

// Wait blocks until the caller's slot arrives or ctx is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// None is a no-op limiter for dry runs and tests.
type None struct{}

func (None) Wait(context.Context) error { return nil }

var (
	_ Limiter = (*Pacer)(nil)
	_ Limiter = None{}
)
