// Package pace enforces the politeness delay between successive fetches.
package pace

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces fetches with a hard minimum interval plus a uniformly random
// jitter so requests do not land on a fixed beat. The zero jitter and zero
// floor configurations are both valid.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// New builds a Pacer with the given floor and jitter window.
func New(minDelay, jitter time.Duration) *Pacer {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		jitter:  jitter,
	}
}

// Wait blocks until the next fetch may start. The first call never waits;
// later calls wait out the remaining floor plus a fresh jitter. Returns the
// context error when canceled mid-wait.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace wait: %w", err)
	}
	p.pause(ctx, p.randomJitter())
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pace wait: %w", err)
	}
	return nil
}

func (p *Pacer) pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *Pacer) randomJitter() time.Duration {
	if p.jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(p.jitter)))
}
