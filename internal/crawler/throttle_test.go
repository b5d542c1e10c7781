package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sjsage522/newsharvester/config"
)

func TestThrottleNextWithinRange(t *testing.T) {
	th := NewThrottle(config.DelayRange{Min: time.Second, Max: 3 * time.Second})
	for range 200 {
		d := th.Next()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}

	fixed := NewThrottle(config.DelayRange{Min: 2 * time.Second, Max: 2 * time.Second})
	assert.Equal(t, 2*time.Second, fixed.Next())
}

func TestThrottleWaitUsesSleep(t *testing.T) {
	rec := &sleepRecorder{}
	th := NewThrottle(config.DelayRange{Min: time.Second, Max: time.Second}).WithSleep(rec.sleep)

	assert.NoError(t, th.Wait(context.Background()))
	assert.NoError(t, th.Wait(context.Background()))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.pauses)
}

func TestThrottleWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &sleepRecorder{}
	th := NewThrottle(config.DelayRange{Min: time.Second, Max: time.Second}).WithSleep(rec.sleep)
	assert.ErrorIs(t, th.Wait(ctx), context.Canceled)
	assert.Zero(t, rec.count())

	var none *Throttle
	assert.ErrorIs(t, none.Wait(ctx), context.Canceled)
	assert.NoError(t, none.Wait(context.Background()))
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
}
