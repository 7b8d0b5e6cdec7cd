// ABOUTME: Range splicer assembling an exact time window from timestamped chunks
// ABOUTME: Copies overlapping chunk ranges into one contiguous buffer
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// DefaultRoundingSlack is the extra frame capacity BuildRange allocates to
// absorb cross-chunk rounding drift.
const DefaultRoundingSlack = 2

// ErrRangeOverflow reports that spliced contributions exceeded the allocated
// capacity. Chunk timestamps overlapped by more than rounding tolerance,
// which breaks the contiguity contract with the capture device.
var ErrRangeOverflow = errors.New("spliced frames exceed allocated capacity")

// BuildRange splices every chunk overlapping [start, end) into one contiguous
// buffer, in arrival order. Chunks straddling the range edges contribute only
// their overlapping frames: a chunk starting before start is read from an
// offset, a chunk ending after end has its copied count reduced. Chunks
// entirely outside the range contribute nothing.
//
// The buffer is allocated for round((end-start)*rate) frames plus slackFrames
// of tolerance (use DefaultRoundingSlack unless tuning). The filled length
// equals the sum of per-chunk contributions and never exceeds the allocation;
// if it would, BuildRange returns ErrRangeOverflow instead of growing.
// Identical inputs always produce identical output.
func BuildRange(chunks []*Chunk, start, end time.Duration, format Format, slackFrames int) (*Buffer, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("invalid range format %+v", format)
	}
	if end <= start {
		return nil, fmt.Errorf("range end %v not after start %v", end, start)
	}
	if slackFrames < 0 {
		slackFrames = 0
	}

	capFrames := hosttime.Frames(end-start, format.SampleRate) + slackFrames
	out := make([]float32, 0, capFrames*format.Channels)

	for _, c := range chunks {
		if c.Format != format {
			return nil, fmt.Errorf("chunk format %+v does not match range format %+v", c.Format, format)
		}
		if c.End() <= start || c.Start >= end {
			continue
		}

		readOffset := 0
		if c.Start < start {
			readOffset = hosttime.Frames(start-c.Start, format.SampleRate)
		}
		frames := c.Frames() - readOffset
		if c.End() > end {
			frames -= hosttime.Frames(c.End()-end, format.SampleRate)
		}
		if frames <= 0 {
			continue
		}

		lo := readOffset * format.Channels
		hi := (readOffset + frames) * format.Channels
		if len(out)+(hi-lo) > capFrames*format.Channels {
			return nil, fmt.Errorf("%w: chunk at %v pushes fill past %d frames",
				ErrRangeOverflow, c.Start, capFrames)
		}
		out = append(out, c.Samples[lo:hi]...)
	}

	return &Buffer{Start: start, Samples: out, Format: format}, nil
}
