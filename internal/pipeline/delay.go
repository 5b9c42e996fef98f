package pipeline

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delayer paces requests between items.
type Delayer interface {
	// Wait blocks for the next pause, returning early with the context error on cancellation.
	Wait(ctx context.Context) error
}

// RandomDelay waits a uniformly random duration in [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// Next draws the next pause.
func (d RandomDelay) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

func (d RandomDelay) Wait(ctx context.Context) error {
	pause := d.Next()
	if pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}
