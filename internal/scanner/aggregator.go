package scanner

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultQuietPeriod = 80 * time.Millisecond

// Code is one validated scan emission. Value is trimmed and non-empty.
type Code struct {
	Value      string
	CapturedAt time.Time
}

// Sink is the focus-stealing text receptacle the wedge scanner types
// into. The station only ever steers focus and wipes it.
type Sink interface {
	Focus()
	Clear()
}

// Handler receives emitted codes. It is invoked without the aggregator
// lock held, so it may call back into the aggregator (stop listening,
// retarget) safely.
type Handler func(Code)

// Aggregator folds the raw keyboard-wedge character stream into discrete
// scan events. Wedge scanners type faster than any consumer can observe
// atomically, and some fire a terminator while others go quiet; the
// debounce timer and the explicit-submit path both drain the same buffer
// so each physical scan emits exactly once.
type Aggregator struct {
	mu        sync.Mutex
	quiet     time.Duration
	sink      Sink
	handler   Handler
	clock     func() time.Time
	listening bool
	target    string
	buffer    string
	timer     *time.Timer
	// gen invalidates timer callbacks that lost the Stop race: a fire
	// from a previous session compares its generation and bails.
	gen uint64
}

// Option configures optional aggregator behavior.
type Option func(*Aggregator)

// WithQuietPeriod overrides the debounce gap after the last raw delta.
func WithQuietPeriod(quiet time.Duration) Option {
	return func(a *Aggregator) {
		if quiet > 0 {
			a.quiet = quiet
		}
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New builds an aggregator bound to the given sink and emission handler.
func New(sink Sink, handler Handler, opts ...Option) (*Aggregator, error) {
	if sink == nil {
		return nil, fmt.Errorf("scan sink required")
	}
	if handler == nil {
		return nil, fmt.Errorf("scan handler required")
	}
	a := &Aggregator{
		quiet:   defaultQuietPeriod,
		sink:    sink,
		handler: handler,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// SetListening toggles scan capture. Turning either way cancels any
// pending timer and wipes buffer and sink, so stray late characters can
// never leak across sessions; turning on additionally steals focus.
func (a *Aggregator) SetListening(on bool) {
	a.mu.Lock()
	a.resetLocked()
	a.listening = on
	a.mu.Unlock()

	if on {
		a.sink.Focus()
	}
}

// Listening reports whether scan capture is active.
func (a *Aggregator) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// SetTarget attaches the aggregator to a consuming context. Scans
// delivered with no target are discarded.
func (a *Aggregator) SetTarget(target string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = target
}

// ClearTarget detaches the current context and drops any half-captured
// scan with it.
func (a *Aggregator) ClearTarget() {
	a.mu.Lock()
	a.resetLocked()
	a.target = ""
	a.mu.Unlock()
}

// Target returns the attached context, or "" when none.
func (a *Aggregator) Target() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// OnRawDelta records the sink's current text. Each delta carries the
// full token typed so far, not an increment, so the buffer is replaced
// verbatim. The quiet-period timer restarts on every delta; when it
// fires the buffer is emitted.
func (a *Aggregator) OnRawDelta(text string) {
	a.mu.Lock()
	if !a.listening || a.target == "" {
		// Scans must not silently attach to the wrong context.
		a.resetLocked()
		a.mu.Unlock()
		return
	}

	a.buffer = text
	a.stopTimerLocked()
	// Stop does not guarantee the old callback never runs; it may
	// already be blocked on the mutex. Advancing the generation here
	// strands it, so only the timer armed for THIS delta can drain it.
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.quiet, func() {
		a.fire(gen)
	})
	a.mu.Unlock()
}

// OnExplicitSubmit drains the buffer synchronously for devices that send
// a terminator. Any in-flight debounce is cancelled first so the scan
// cannot emit twice.
func (a *Aggregator) OnExplicitSubmit() {
	a.mu.Lock()
	a.stopTimerLocked()
	if !a.listening || a.target == "" {
		a.resetLocked()
		a.mu.Unlock()
		return
	}
	code, ok := a.drainLocked()
	a.mu.Unlock()

	if ok {
		a.handler(code)
	}
}

func (a *Aggregator) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || !a.listening || a.target == "" {
		a.mu.Unlock()
		return
	}
	code, ok := a.drainLocked()
	a.mu.Unlock()

	if ok {
		a.handler(code)
	}
}

// drainLocked trims and consumes the buffer, clearing the sink either
// way. Empty results are scanner noise and are dropped silently.
func (a *Aggregator) drainLocked() (Code, bool) {
	trimmed := strings.TrimSpace(a.buffer)
	a.buffer = ""
	a.gen++
	a.sink.Clear()
	if trimmed == "" {
		return Code{}, false
	}
	return Code{Value: trimmed, CapturedAt: a.clock()}, true
}

func (a *Aggregator) resetLocked() {
	a.stopTimerLocked()
	a.buffer = ""
	a.gen++
	a.sink.Clear()
}

func (a *Aggregator) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
