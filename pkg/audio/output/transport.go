// ABOUTME: Playback transport interface for host-time-scheduled buffers
// ABOUTME: Queued buffers play back-to-back from a future anchor time
package output

import (
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
)

// Transport accepts spliced buffers and plays them at a scheduled host time.
// Buffers play back-to-back in schedule order starting at the PlayAt anchor;
// a looping buffer repeats forever once reached. Every method must return
// without blocking: the engine calls them from its serialized event handler.
type Transport interface {
	// ScheduleOnce queues a buffer to play once, after everything queued
	// before it.
	ScheduleOnce(b *audio.Buffer)

	// ScheduleLooping queues a buffer that repeats forever once reached.
	ScheduleLooping(b *audio.Buffer)

	// PlayAt anchors the queued chain to begin at the given host time. The
	// anchor survives further scheduling but not Stop.
	PlayAt(at time.Duration)

	// Stop drops the queue and the anchor. The device stays usable.
	Stop()

	// LastRenderTime reports the host time of the most recently rendered
	// output frame.
	LastRenderTime() time.Duration
}
