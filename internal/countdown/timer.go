// Package countdown implements the resend cooldown ticker.
package countdown

import (
	"sync"
	"time"
)

// DefaultCooldown is the number of seconds before a code may be resent.
const DefaultCooldown = 60

// Timer counts whole seconds down to zero. At most one countdown runs per
// Timer; Start while running replaces it.
type Timer struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	stop      chan struct{}
	onChange  func(int)
}

type Option func(*Timer)

// WithInterval sets the tick period. Zero disables the background ticker and
// leaves the countdown to explicit Tick calls.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		t.interval = d
	}
}

// WithOnChange registers a callback invoked with the remaining seconds after
// every change.
func WithOnChange(fn func(int)) Option {
	return func(t *Timer) {
		t.onChange = fn
	}
}

func New(opts ...Option) *Timer {
	t := &Timer{interval: time.Second}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start arms the countdown with seconds, discarding any running countdown.
func (t *Timer) Start(seconds int) {
	if seconds < 0 {
		seconds = 0
	}

	t.mu.Lock()
	t.halt()
	t.remaining = seconds
	var stop chan struct{}
	if seconds > 0 && t.interval > 0 {
		stop = make(chan struct{})
		t.stop = stop
	}
	t.mu.Unlock()

	t.notify(seconds)
	if stop != nil {
		go t.run(stop, t.interval)
	}
}

// Tick advances the countdown by one second. It reports whether the
// countdown is still running afterwards.
func (t *Timer) Tick() bool {
	return t.tick(nil)
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Running() bool {
	return t.Remaining() > 0
}

// Stop clears the countdown and releases the ticker goroutine.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.halt()
	changed := t.remaining != 0
	t.remaining = 0
	t.mu.Unlock()

	if changed {
		t.notify(0)
	}
}

func (t *Timer) run(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.tick(stop) {
				return
			}
		}
	}
}

// tick decrements the countdown. A non-nil owner must still be the active
// ticker, so a replaced goroutine cannot touch the new countdown.
func (t *Timer) tick(owner chan struct{}) bool {
	t.mu.Lock()
	if owner != nil && owner != t.stop {
		t.mu.Unlock()
		return false
	}
	if t.remaining == 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	left := t.remaining
	if left == 0 {
		t.halt()
	}
	t.mu.Unlock()

	t.notify(left)
	return left > 0
}

// halt must be called with mu held.
func (t *Timer) halt() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) notify(left int) {
	if t.onChange != nil {
		t.onChange(left)
	}
}
