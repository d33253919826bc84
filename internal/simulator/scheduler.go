package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Speed is a clock preset of the scheduler.
type Speed string

const (
	SpeedX1    Speed = "x1"
	SpeedX30   Speed = "x30"
	SpeedX60   Speed = "x60"
	SpeedTurbo Speed = "turbo"
)

var speedIntervals = map[Speed]time.Duration{
	SpeedX1:    time.Minute,
	SpeedX30:   2 * time.Second,
	SpeedX60:   time.Second,
	SpeedTurbo: 50 * time.Millisecond,
}

// Interval returns the wall-clock time between two ticks.
func (s Speed) Interval() (time.Duration, bool) {
	d, ok := speedIntervals[s]
	return d, ok
}

// Ticker is what the scheduler drives on every tick.
type Ticker interface {
	TickAll(ctx context.Context, now time.Time) error
}

// Scheduler is the single driver loop that ticks every active match at the
// current speed.
type Scheduler struct {
	target Ticker
	log    *logrus.Logger
	now    func() time.Time

	mu    sync.Mutex
	speed Speed
	reset chan time.Duration
}

func NewScheduler(target Ticker, speed Speed, log *logrus.Logger) (*Scheduler, error) {
	if _, ok := speed.Interval(); !ok {
		return nil, fmt.Errorf("unknown speed %q", speed)
	}
	return &Scheduler{
		target: target,
		log:    log,
		now:    time.Now,
		speed:  speed,
		reset:  make(chan time.Duration, 1),
	}, nil
}

func (s *Scheduler) Speed() Speed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// SetSpeed switches the preset. A running loop restarts its ticker.
func (s *Scheduler) SetSpeed(speed Speed) error {
	d, ok := speed.Interval()
	if !ok {
		return fmt.Errorf("unknown speed %q", speed)
	}
	s.mu.Lock()
	s.speed = speed
	s.mu.Unlock()

	// keep only the latest request; never block when the loop is not reading
	select {
	case <-s.reset:
	default:
	}
	select {
	case s.reset <- d:
	default:
	}
	s.log.WithField("speed", speed).Info("Clock speed changed")
	return nil
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	d, _ := s.Speed().Interval()
	s.log.WithFields(logrus.Fields{"speed": s.Speed(), "interval": d}).Info("Scheduler started")
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.target.TickAll(ctx, s.now()); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("Scheduler tick failed")
			}
		case <-s.reset:
			// the preset under mu is authoritative when requests raced
			d, _ := s.Speed().Interval()
			ticker.Reset(d)
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return
		}
	}
}
