package quiz

import (
	"sync"
	"time"
)

// countdownTimer delivers one tick per interval to onTick until stopped. Remaining time,
// pause and submission state are owned by the Session; the timer only paces ticks.
type countdownTimer struct {
	interval time.Duration
	onTick   func()

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

func newCountdownTimer(interval time.Duration, onTick func()) *countdownTimer {
	return &countdownTimer{
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
	}
}

func (t *countdownTimer) Start() {
	t.startOnce.Do(func() {
		go t.run()
	})
}

// Stop does not wait for an in-flight tick; callers holding locks used by onTick stay safe.
func (t *countdownTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

func (t *countdownTimer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			select {
			case <-t.stop:
				return
			default:
			}
			t.onTick()
		}
	}
}
