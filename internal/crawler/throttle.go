package crawler

import (
	"context"
	mathrand "math/rand/v2"
	"time"

	"sjsage522/newsharvester/config"
)

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Throttle enforces the politeness delay between outbound requests
type Throttle struct {
	delay config.DelayRange
	sleep SleepFunc
}

// NewThrottle creates a throttle drawing delays uniformly from delay
func NewThrottle(delay config.DelayRange) *Throttle {
	return &Throttle{delay: delay, sleep: SleepContext}
}

// WithSleep replaces the sleep function, mostly for tests
func (t *Throttle) WithSleep(sleep SleepFunc) *Throttle {
	return &Throttle{delay: t.delay, sleep: sleep}
}

// Next draws the next delay from the closed interval [min, max]
func (t *Throttle) Next() time.Duration {
	span := t.delay.Max - t.delay.Min
	if span <= 0 {
		return t.delay.Min
	}
	return t.delay.Min + time.Duration(mathrand.Int64N(int64(span)+1))
}

// Wait sleeps for the next delay. It returns ctx's error if the context is
// done before or during the pause.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.sleep(ctx, t.Next())
}

// SleepContext sleeps for d unless ctx is done first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
