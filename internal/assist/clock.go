package assist

import "time"

// Clock abstracts timer creation so the debounce window can be driven
// deterministically in tests.
type Clock interface {
	// NewTimer returns a stopped timer. Callers arm it with Reset.
	NewTimer() Timer
}

// Timer is a resettable one-shot timer.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Reset re-arms the timer to fire after d. Any previously scheduled
	// fire is discarded.
	Reset(d time.Duration)

	// Stop disarms the timer without draining its channel.
	Stop()
}

// realClock builds timers backed by [time.Timer].
type realClock struct{}

var _ Clock = realClock{}

func (realClock) NewTimer() Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return &realTimer{t: t}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.t.C }

// Reset drains an undelivered fire before re-arming, so a tick from the old
// schedule can never be read against the new one.
func (r *realTimer) Reset(d time.Duration) {
	if !r.t.Stop() {
		select {
		case <-r.t.C:
		default:
		}
	}
	r.t.Reset(d)
}

func (r *realTimer) Stop() { r.t.Stop() }
