// ABOUTME: Audio type definitions
// ABOUTME: Defines the stream format and float32 sample conversions
package audio

import (
	"encoding/binary"
	"math"
)

// Format describes the fixed stream format shared by capture, splicing and
// playback. Samples are interleaved float32 throughout.
type Format struct {
	SampleRate int
	Channels   int
}

// Valid reports whether the format is usable.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// FrameBytes returns the byte size of one interleaved frame.
func (f Format) FrameBytes() int {
	return f.Channels * 4
}

// Float32LEBytes encodes interleaved float32 samples as little-endian bytes,
// the layout both the playback boundary and the capture boundary speak.
func Float32LEBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// Float32FromLE decodes little-endian float32 bytes into samples. Trailing
// bytes short of a full sample are ignored.
func Float32FromLE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
