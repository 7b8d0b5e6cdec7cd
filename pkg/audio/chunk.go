// ABOUTME: TimedChunk type for timestamped capture deliveries
// ABOUTME: Immutable after delivery except a one-time in-place end trim
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

var (
	// ErrAlreadyTrimmed is returned when a chunk is trimmed a second time.
	ErrAlreadyTrimmed = errors.New("chunk already trimmed")

	// ErrTrimBeyondEnd is returned when a trim would lengthen the chunk.
	ErrTrimBeyondEnd = errors.New("trim time beyond chunk end")
)

// Chunk is one timestamped delivery from the capture device: interleaved
// float32 samples plus the host time of the first frame. A chunk is never
// mutated after delivery except by TrimEndTo, which is applied at most once,
// to the final chunk of a captured window, before that chunk reaches playback.
type Chunk struct {
	Start   time.Duration
	Samples []float32
	Format  Format

	trimmed bool
}

// NewChunk wraps a sample slice as a chunk. The chunk takes ownership of the
// slice; capture backends copy out of the device buffer exactly once.
func NewChunk(start time.Duration, samples []float32, format Format) *Chunk {
	return &Chunk{Start: start, Samples: samples, Format: format}
}

// Frames returns the chunk length in frames.
func (c *Chunk) Frames() int {
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the time span the chunk covers.
func (c *Chunk) Duration() time.Duration {
	return hosttime.Span(c.Frames(), c.Format.SampleRate)
}

// End returns the host time one frame past the last frame. It is computed
// from Start and the frame count, not measured, so consecutive chunk
// boundaries may drift by rounding.
func (c *Chunk) End() time.Duration {
	return c.Start + c.Duration()
}

// TrimEndTo shortens the chunk in place so End() lands on t, rounded to the
// nearest frame. Trim times before Start clamp to an empty chunk.
func (c *Chunk) TrimEndTo(t time.Duration) error {
	if c.trimmed {
		return ErrAlreadyTrimmed
	}
	keep := hosttime.Frames(t-c.Start, c.Format.SampleRate)
	if keep < 0 {
		keep = 0
	}
	if keep > c.Frames() {
		return fmt.Errorf("%w: trim to %v but chunk ends at %v", ErrTrimBeyondEnd, t, c.End())
	}
	c.Samples = c.Samples[:keep*c.Format.Channels]
	c.trimmed = true
	return nil
}
