// ABOUTME: Sine tone capture source for testing without a microphone
// ABOUTME: Generates phase-continuous chunks on a ticker or by explicit pump
package capture

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// DefaultToneFrequency is A4.
const DefaultToneFrequency = 440.0

// ToneConfig configures a Tone source.
type ToneConfig struct {
	Config
	// Frequency in Hz. Zero selects DefaultToneFrequency.
	Frequency float64
	// NoPacing disables the real-time ticker. Chunks are then produced
	// only by Emit, with Clock supplying the timebase.
	NoPacing bool
	// Clock overrides the internal clock. Required with NoPacing.
	Clock hosttime.Clock
}

// Tone generates a sine wave as if it were captured from a device.
// Chunks are stamped by frame count from the moment Start is called, so
// the generated timeline is sample-contiguous and the tone stays
// phase-continuous across chunk boundaries.
type Tone struct {
	cfg   ToneConfig
	clock hosttime.Clock

	mu      sync.Mutex
	running bool
	base    time.Duration
	frames  int64
	stop    chan struct{}
	done    chan struct{}
}

// NewTone creates a tone source.
func NewTone(cfg ToneConfig) (*Tone, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Frequency < 0 {
		return nil, fmt.Errorf("negative tone frequency: %v", cfg.Frequency)
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultToneFrequency
	}
	clock := cfg.Clock
	if clock == nil {
		if cfg.NoPacing {
			return nil, fmt.Errorf("unpaced tone source needs a clock")
		}
		clock = hosttime.NewSystem()
	}
	return &Tone{cfg: cfg, clock: clock}, nil
}

// Start begins generation. With NoPacing set it only arms Emit.
func (t *Tone) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	t.running = true
	t.base = t.clock.Now()
	t.frames = 0
	if t.cfg.NoPacing {
		return nil
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
	return nil
}

func (t *Tone) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(hosttime.Span(t.cfg.ChunkFrames, t.cfg.Format.SampleRate))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.Emit()
		}
	}
}

// Emit produces the next chunk and delivers it. The ticker calls it when
// pacing is enabled; simulations call it directly. It returns the chunk
// delivered, or nil when the source is stopped.
func (t *Tone) Emit() *audio.Chunk {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	f := t.cfg.Format
	frames := t.cfg.ChunkFrames
	start := t.base + hosttime.Span(int(t.frames), f.SampleRate)
	samples := make([]float32, frames*f.Channels)
	for i := 0; i < frames; i++ {
		phase := float64(t.frames+int64(i)) / float64(f.SampleRate)
		s := float32(math.Sin(2*math.Pi*t.cfg.Frequency*phase) * 0.5)
		for ch := 0; ch < f.Channels; ch++ {
			samples[i*f.Channels+ch] = s
		}
	}
	t.frames += int64(frames)
	t.mu.Unlock()

	c := audio.NewChunk(start, samples, f)
	t.cfg.OnChunk(c)
	return c
}

// Stop halts generation.
func (t *Tone) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// Close stops generation. There is no device to release.
func (t *Tone) Close() error {
	return t.Stop()
}

// Now reports time on the source clock.
func (t *Tone) Now() time.Duration {
	return t.clock.Now()
}

// Device describes the synthetic stream.
func (t *Tone) Device() audio.DeviceInfo {
	return audio.StaticDeviceInfo{
		Rate:     t.cfg.Format.SampleRate,
		Chans:    t.cfg.Format.Channels,
		IOBuffer: hosttime.Span(t.cfg.ChunkFrames, t.cfg.Format.SampleRate),
	}
}
