package wallpaper

import (
	"context"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/dixieflatline76/rngpaper/util/log"
)

// Scheduler fires a timer trigger every configured interval. The interval is re-read after
// every tick and on Reset, so settings reloads take effect without a restart.
type Scheduler struct {
	settings *settings.Holder
	trigger  func(source string) bool
	reset    chan struct{}
}

// NewScheduler returns a scheduler calling trigger, typically Changer.Trigger.
func NewScheduler(h *settings.Holder, trigger func(source string) bool) *Scheduler {
	return &Scheduler{
		settings: h,
		trigger:  trigger,
		reset:    make(chan struct{}, 1),
	}
}

// Reset restarts the current wait with the latest interval.
func (s *Scheduler) Reset() {
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. With change_on_start set it triggers once right away.
func (s *Scheduler) Run(ctx context.Context) {
	log.Print("Starting wallpaper scheduler...")
	if s.settings.Snapshot().ChangeOnStart {
		s.trigger(SourceStart)
	}

	for {
		interval := s.settings.Snapshot().Interval

		var tick <-chan time.Time
		var timer *time.Timer
		if interval > 0 {
			log.Debugf("Next timed change in %v", interval)
			timer = time.NewTimer(interval)
			tick = timer.C
		} else {
			log.Debugf("Timed changes disabled")
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Print("Stopping wallpaper scheduler.")
			return
		case <-tick:
			s.trigger(SourceTimer)
		case <-s.reset:
			if timer != nil {
				timer.Stop()
			}
		}
	}
}
