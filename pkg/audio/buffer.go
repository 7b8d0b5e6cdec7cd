// ABOUTME: Spliced playback buffer type
// ABOUTME: One contiguous time range of samples ready for the transport
package audio

import (
	"time"

	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// Buffer is one contiguous spliced range of audio ready for the playback
// transport. Start is the host time its first frame represents.
type Buffer struct {
	Start   time.Duration
	Samples []float32
	Format  Format
}

// Frames returns the filled length in frames.
func (b *Buffer) Frames() int {
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the time span the filled frames cover.
func (b *Buffer) Duration() time.Duration {
	return hosttime.Span(b.Frames(), b.Format.SampleRate)
}

// End returns the host time one frame past the last filled frame.
func (b *Buffer) End() time.Duration {
	return b.Start + b.Duration()
}
