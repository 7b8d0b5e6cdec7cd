// ABOUTME: Capture source interface definition
// ABOUTME: Common interface for timestamped audio input backends
package capture

import (
	"fmt"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
)

// DefaultChunkFrames is the nominal chunk size requested from backends
// when the config does not specify one. 960 frames is 20ms at 48kHz.
const DefaultChunkFrames = 960

// ChunkFunc receives captured chunks. It runs on the backend's capture
// thread, so implementations must return quickly.
type ChunkFunc func(*audio.Chunk)

// Config configures a capture source.
type Config struct {
	Format audio.Format
	// ChunkFrames is the frames per delivered chunk the backend should
	// aim for. Backends may deliver other sizes. Zero selects
	// DefaultChunkFrames.
	ChunkFrames int
	OnChunk     ChunkFunc
}

func (c *Config) validate() error {
	if !c.Format.Valid() {
		return fmt.Errorf("unusable capture format: %+v", c.Format)
	}
	if c.OnChunk == nil {
		return fmt.Errorf("chunk callback is required")
	}
	if c.ChunkFrames < 0 {
		return fmt.Errorf("negative chunk size: %d", c.ChunkFrames)
	}
	if c.ChunkFrames == 0 {
		c.ChunkFrames = DefaultChunkFrames
	}
	return nil
}

// Source captures timestamped audio from an input.
//
// A Source owns the timebase its chunks are stamped on: Now and chunk
// start times read the same clock, which makes every Source usable as a
// hosttime.Clock for anything that must agree with capture time.
type Source interface {
	// Start begins capture and chunk delivery.
	Start() error

	// Stop halts delivery without releasing the device.
	Stop() error

	// Close releases the device.
	Close() error

	// Now reports the current host time on the capture timebase.
	Now() time.Duration

	// Device describes the stream. Latency fields are best effort and
	// may be zero until Start.
	Device() audio.DeviceInfo
}

// Open creates the named capture backend. Supported names are "malgo",
// "portaudio" and "tone"; the empty string selects malgo.
func Open(backend string, cfg Config) (Source, error) {
	switch backend {
	case "", "malgo":
		return NewMalgo(cfg)
	case "portaudio":
		return NewPortAudio(cfg)
	case "tone":
		return NewTone(ToneConfig{Config: cfg})
	default:
		return nil, fmt.Errorf("unknown capture backend %q", backend)
	}
}
