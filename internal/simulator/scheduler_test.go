package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTicker chan time.Time

func (c countingTicker) TickAll(_ context.Context, now time.Time) error {
	select {
	case c <- now:
	default:
	}
	return nil
}

func TestSpeedIntervals(t *testing.T) {
	tests := map[Speed]time.Duration{
		SpeedX1:    time.Minute,
		SpeedX30:   2 * time.Second,
		SpeedX60:   time.Second,
		SpeedTurbo: 50 * time.Millisecond,
	}
	for speed, want := range tests {
		got, ok := speed.Interval()
		assert.True(t, ok, speed)
		assert.Equal(t, want, got, speed)
	}
	_, ok := Speed("x1000").Interval()
	assert.False(t, ok)
}

func TestSchedulerTicksUntilCancelled(t *testing.T) {
	_, err := NewScheduler(countingTicker(nil), "warp", quietLogger())
	assert.Error(t, err)

	ticks := make(countingTicker, 1)
	s, err := NewScheduler(ticks, SpeedX1, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.NoError(t, s.SetSpeed(SpeedTurbo))
	assert.Equal(t, SpeedTurbo, s.Speed())
	assert.Error(t, s.SetSpeed("warp"))
	assert.Equal(t, SpeedTurbo, s.Speed())

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("no tick after switching to turbo")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSetSpeedDoesNotBlockWithoutLoop(t *testing.T) {
	s, err := NewScheduler(countingTicker(nil), SpeedX1, quietLogger())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, speed := range []Speed{SpeedX30, SpeedX60, SpeedTurbo, SpeedX30, SpeedX60, SpeedTurbo} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.SetSpeed(speed))
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SetSpeed blocked while nothing was running")
	}
	assert.Contains(t, []Speed{SpeedX30, SpeedX60, SpeedTurbo}, s.Speed())
}
