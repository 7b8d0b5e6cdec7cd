// ABOUTME: High-level Looper API for press-to-loop capture and playback
// ABOUTME: Wires a capture source, the loop engine and the output into one object
package stomploop

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/audio/capture"
	"github.com/stomploop/stomploop-go/pkg/audio/output"
	"github.com/stomploop/stomploop-go/pkg/looper"
)

// LooperConfig holds looper configuration
type LooperConfig struct {
	// Input selects the capture backend: "malgo" (default), "portaudio"
	// or "tone".
	Input string

	// SampleRate of the stream (default: 48000)
	SampleRate int

	// Channels of the stream (default: 1)
	Channels int

	// ChunkFrames is the nominal frames per captured chunk
	// (default: capture.DefaultChunkFrames)
	ChunkFrames int

	// OutputBuffer is the playback device buffer duration
	// (default: output.DefaultBufferSize)
	OutputBuffer time.Duration

	// Volume is the initial volume (0-100)
	Volume int

	// NoPreRoll disables seeding a take with audio captured just before
	// the start press
	NoPreRoll bool

	// NoLatencyComp disables output latency compensation when choosing
	// playback start times
	NoLatencyComp bool

	// OnStateChange is called when the engine changes state
	OnStateChange func(looper.State)

	// OnError is called when the engine faults
	OnError func(error)
}

// LooperStats contains capture and playback statistics
type LooperStats struct {
	Chunks    uint64
	Frames    uint64
	Underruns int64
}

// Looper captures timestamped audio and plays pressed-out loops.
//
// The capture source is the time authority: press timestamps, chunk
// timestamps and playback schedules all read the source clock.
type Looper struct {
	config LooperConfig

	mu     sync.Mutex
	source capture.Source
	out    *output.Oto
	engine *looper.Engine
	muted  bool
}

// NewLooper creates a looper with the given configuration. Devices open
// on Start.
func NewLooper(config LooperConfig) (*Looper, error) {
	// Set defaults
	if config.Input == "" {
		config.Input = "malgo"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 1
	}
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.SampleRate < 0 || config.Channels < 0 || config.ChunkFrames < 0 {
		return nil, fmt.Errorf("invalid stream config: %dHz, %d channels, %d-frame chunks",
			config.SampleRate, config.Channels, config.ChunkFrames)
	}

	return &Looper{config: config}, nil
}

// Start opens the capture and output devices and begins capturing.
func (l *Looper) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.source != nil {
		return nil
	}

	format := audio.Format{SampleRate: l.config.SampleRate, Channels: l.config.Channels}

	src, err := capture.Open(l.config.Input, capture.Config{
		Format:      format,
		ChunkFrames: l.config.ChunkFrames,
		OnChunk:     l.onChunk,
	})
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}

	// The source doubles as the output clock so both sides share one
	// timebase.
	out, err := output.NewOto(output.OtoConfig{
		Format:     format,
		Clock:      src,
		BufferSize: l.config.OutputBuffer,
	})
	if err != nil {
		src.Close()
		return fmt.Errorf("failed to open output: %w", err)
	}
	out.SetVolume(l.config.Volume)
	out.SetMuted(l.muted)

	dev := src.Device()
	engine, err := looper.NewEngine(looper.Config{
		Transport: out,
		Device: audio.StaticDeviceInfo{
			Rate:       dev.SampleRate(),
			Chans:      dev.Channels(),
			IOBuffer:   dev.IOBufferDuration(),
			InLatency:  dev.InputLatency(),
			OutLatency: out.BufferDuration(),
		},
		NoPreRoll:     l.config.NoPreRoll,
		NoLatencyComp: l.config.NoLatencyComp,
		OnStateChange: l.config.OnStateChange,
		OnError:       l.config.OnError,
	})
	if err != nil {
		out.Close()
		src.Close()
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if err := src.Start(); err != nil {
		out.Close()
		src.Close()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	l.source = src
	l.out = out
	l.engine = engine

	log.Printf("Looper started: %dHz, %d channels, input=%s",
		l.config.SampleRate, l.config.Channels, l.config.Input)

	return nil
}

// onChunk routes captured chunks into the engine.
func (l *Looper) onChunk(c *audio.Chunk) {
	l.mu.Lock()
	engine := l.engine
	l.mu.Unlock()
	if engine != nil {
		engine.OnChunk(c)
	}
}

// Press registers a footswitch press at the current capture time. The
// first press starts a take, the second schedules its loop, a third
// tears the loop down.
func (l *Looper) Press() error {
	l.mu.Lock()
	src, engine := l.source, l.engine
	l.mu.Unlock()

	if src == nil || engine == nil {
		return fmt.Errorf("not started")
	}
	engine.OnPress(src.Now())
	return nil
}

// Reset discards the current take, any playing loop and any fault.
func (l *Looper) Reset() error {
	l.mu.Lock()
	engine := l.engine
	l.mu.Unlock()

	if engine == nil {
		return fmt.Errorf("not started")
	}
	engine.Reset()
	return nil
}

// Status returns the current engine status.
func (l *Looper) Status() looper.Status {
	l.mu.Lock()
	engine := l.engine
	l.mu.Unlock()

	if engine == nil {
		return looper.Status{}
	}
	return engine.Status()
}

// Stats returns capture and playback statistics.
func (l *Looper) Stats() LooperStats {
	l.mu.Lock()
	engine, out := l.engine, l.out
	l.mu.Unlock()

	stats := LooperStats{}
	if engine != nil {
		st := engine.Status()
		stats.Chunks = st.Chunks
		stats.Frames = st.Frames
	}
	if out != nil {
		stats.Underruns = out.Underruns()
	}
	return stats
}

// SetVolume sets the playback volume (0-100)
func (l *Looper) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	l.mu.Lock()
	l.config.Volume = volume
	out := l.out
	l.mu.Unlock()

	if out != nil {
		out.SetVolume(volume)
	}
}

// Mute sets the mute state
func (l *Looper) Mute(muted bool) {
	l.mu.Lock()
	l.muted = muted
	out := l.out
	l.mu.Unlock()

	if out != nil {
		out.SetMuted(muted)
	}
}

// Volume returns the current volume
func (l *Looper) Volume() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.Volume
}

// Muted reports the mute state
func (l *Looper) Muted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.muted
}

// Close stops capture and playback and releases both devices.
func (l *Looper) Close() error {
	l.mu.Lock()
	src, out := l.source, l.out
	l.source, l.out, l.engine = nil, nil, nil
	l.mu.Unlock()

	if src != nil {
		if err := src.Close(); err != nil {
			log.Printf("Warning: capture close error: %v", err)
		}
	}
	if out != nil {
		out.Stop()
		if err := out.Close(); err != nil {
			log.Printf("Warning: output close error: %v", err)
		}
	}
	return nil
}
