package timex

import "time"

// Clock is a millisecond counter that wraps at 2^32.
// Callers must only compare readings through Elapsed.
type Clock interface {
	NowMs() uint32
}

// Elapsed returns the milliseconds from since to now, tolerant of one wrap.
func Elapsed(now, since uint32) uint32 { return now - since }

// Due reports whether period ms have passed since last.
func Due(now, last, period uint32) bool { return Elapsed(now, last) >= period }

// PeriodMs returns the frame period for a per-second rate.
// rate==0 is coerced to 1 to avoid division by zero.
func PeriodMs(rate uint32) uint32 {
	if rate == 0 {
		rate = 1
	}
	p := 1000 / rate
	if p == 0 {
		p = 1
	}
	return p
}

// System reads the process monotonic clock.
type System struct {
	base time.Time
}

// NewSystem returns a clock anchored at the current instant.
func NewSystem() *System { return &System{base: time.Now()} }

func (s *System) NowMs() uint32 {
	return uint32(time.Since(s.base).Milliseconds())
}

// Manual is a hand-driven clock for tests and simulations.
type Manual struct {
	ms uint32
}

// NewManual returns a clock starting at start ms.
func NewManual(start uint32) *Manual { return &Manual{ms: start} }

func (m *Manual) NowMs() uint32 { return m.ms }

// Advance moves the clock forward by d ms, wrapping at 2^32.
func (m *Manual) Advance(d uint32) { m.ms += d }

// Set jumps to an absolute reading.
func (m *Manual) Set(ms uint32) { m.ms = ms }
