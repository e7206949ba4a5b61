package events

import "time"

// Throttled wraps an Emitter and drops status events that arrive less than
// interval after the previous one. Terminal events (done=true) and
// non-status events always pass through, so the host never misses the end of
// a run.
type Throttled struct {
	emit     Emitter
	interval time.Duration
	lastEmit time.Time
	now      func() time.Time
}

// NewThrottled creates a throttled wrapper around emit.
func NewThrottled(emit Emitter, interval time.Duration) *Throttled {
	return &Throttled{emit: emit, interval: interval, now: time.Now}
}

// Emit forwards ev unless it is a non-terminal status event inside the
// throttle window.
func (t *Throttled) Emit(ev Event) {
	if t.emit == nil {
		return
	}
	if status, ok := ev.Data.(StatusData); ok && ev.Type == "status" && !status.Done {
		if t.now().Sub(t.lastEmit) < t.interval {
			return
		}
	}
	t.lastEmit = t.now()
	t.emit(ev)
}

// Emitter returns t.Emit as a plain Emitter.
func (t *Throttled) Emitter() Emitter {
	return t.Emit
}
