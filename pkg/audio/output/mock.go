// ABOUTME: Mock transport recording scheduling calls
// ABOUTME: Serves a scripted render time for tests and offline simulation
package output

import (
	"sync"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
)

// Mock is a Transport that records every call and reports a render time set
// by the test or simulation driving it.
type Mock struct {
	mu       sync.Mutex
	render   time.Duration
	oneShots []*audio.Buffer
	loops    []*audio.Buffer
	anchors  []time.Duration
	stops    int
}

// NewMock creates a Mock with render time zero.
func NewMock() *Mock {
	return &Mock{}
}

// SetRenderTime scripts the value LastRenderTime reports.
func (m *Mock) SetRenderTime(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.render = t
}

// ScheduleOnce records a one-shot buffer.
func (m *Mock) ScheduleOnce(b *audio.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneShots = append(m.oneShots, b)
}

// ScheduleLooping records a looping buffer.
func (m *Mock) ScheduleLooping(b *audio.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loops = append(m.loops, b)
}

// PlayAt records an anchor time.
func (m *Mock) PlayAt(at time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anchors = append(m.anchors, at)
}

// Stop records a stop.
func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

// LastRenderTime returns the scripted render time.
func (m *Mock) LastRenderTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.render
}

// OneShots returns the recorded one-shot buffers in schedule order.
func (m *Mock) OneShots() []*audio.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*audio.Buffer, len(m.oneShots))
	copy(out, m.oneShots)
	return out
}

// Loops returns the recorded looping buffers in schedule order.
func (m *Mock) Loops() []*audio.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*audio.Buffer, len(m.loops))
	copy(out, m.loops)
	return out
}

// Anchors returns the recorded PlayAt times in call order.
func (m *Mock) Anchors() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.anchors))
	copy(out, m.anchors)
	return out
}

// Stops returns how many times Stop was called.
func (m *Mock) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
