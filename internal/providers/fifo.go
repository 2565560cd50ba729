// Package providers implements the third-party existence probes (Microsoft,
// Google, Apple, Gravatar, GitHub, PGP, HIBP), each serialized through a
// single-consumer FIFO with a minimum inter-call spacing, per provider.
package providers

import (
	"context"
	"sync"
	"time"
)

// fifo enforces a minimum interval between the start of consecutive calls
// for one provider, implemented as a mutex-guarded "next allowed time"
// rather than a literal queue — equivalent behavior, simpler state.
type fifo struct {
	mu       sync.Mutex
	spacing  time.Duration
	nextCall time.Time
}

func newFIFO(spacing time.Duration) *fifo {
	return &fifo{spacing: spacing}
}

// wait blocks the caller until its turn, respecting ctx cancellation.
func (f *fifo) wait(ctx context.Context) error {
	f.mu.Lock()
	now := time.Now()
	wait := f.nextCall.Sub(now)
	if wait < 0 {
		wait = 0
	}
	f.nextCall = now.Add(wait).Add(f.spacing)
	f.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
