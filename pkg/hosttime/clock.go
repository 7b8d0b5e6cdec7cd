// ABOUTME: Host-time clock abstraction with frame/duration conversions
// ABOUTME: Provides System and Manual clocks sharing one monotonic timebase
package hosttime

import (
	"math"
	"sync"
	"time"
)

// Clock reads the host audio clock: monotonic time since an arbitrary origin,
// independent of wall-clock calendar time. Chunk timestamps, press timestamps
// and playback schedules must all come from the same Clock or they silently
// disagree about what "now" means.
type Clock interface {
	Now() time.Duration
}

// System is a Clock backed by the process monotonic clock.
type System struct {
	origin time.Time
}

// NewSystem creates a System clock whose origin is the moment of the call.
func NewSystem() *System {
	return &System{origin: time.Now()}
}

// Now returns the monotonic time elapsed since the clock origin.
func (s *System) Now() time.Duration {
	return time.Since(s.origin)
}

// Manual is a hand-advanced Clock for tests and offline simulation.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}

// Frames converts a time span to a frame count at the given sample rate,
// rounding to the nearest frame.
func Frames(span time.Duration, sampleRate int) int {
	return int(math.Round(span.Seconds() * float64(sampleRate)))
}

// Span converts a frame count to a time span at the given sample rate.
func Span(frames, sampleRate int) time.Duration {
	return time.Duration(math.Round(float64(frames) / float64(sampleRate) * float64(time.Second)))
}
