//go:build portaudio

// ABOUTME: PortAudio capture implementation with hardware timestamps
// ABOUTME: Stamps chunks from the stream ADC clock
package capture

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// PortAudio captures from the default input device with hardware
// timestamps. The stream clock stamps every buffer at its ADC time, so
// chunk start times need no frame counting.
type PortAudio struct {
	cfg Config

	mu      sync.Mutex
	stream  *portaudio.Stream
	dev     audio.StaticDeviceInfo
	started bool
}

// NewPortAudio creates a PortAudio capture source. The device opens on
// Start.
func NewPortAudio(cfg Config) (*PortAudio, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &PortAudio{
		cfg: cfg,
		dev: audio.StaticDeviceInfo{
			Rate:     cfg.Format.SampleRate,
			Chans:    cfg.Format.Channels,
			IOBuffer: hosttime.Span(cfg.ChunkFrames, cfg.Format.SampleRate),
		},
	}, nil
}

// Start initializes PortAudio and opens the default input stream.
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	if p.stream == nil {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		stream, err := portaudio.OpenDefaultStream(
			p.cfg.Format.Channels, 0, float64(p.cfg.Format.SampleRate),
			p.cfg.ChunkFrames, p.onCapture)
		if err != nil {
			portaudio.Terminate()
			return fmt.Errorf("failed to open capture stream: %w", err)
		}
		p.stream = stream
		info := stream.Info()
		p.dev.InLatency = info.InputLatency
		p.dev.OutLatency = info.OutputLatency
	}

	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}
	p.started = true

	log.Printf("Audio capture initialized: %dHz, %d channels, %v input latency (portaudio)",
		p.cfg.Format.SampleRate, p.cfg.Format.Channels, p.dev.InLatency)

	return nil
}

// onCapture runs on the PortAudio callback thread for each buffer. The
// input slice is reused between callbacks and must be copied out.
func (p *PortAudio) onCapture(in []float32, ti portaudio.StreamCallbackTimeInfo) {
	samples := make([]float32, len(in))
	copy(samples, in)
	p.cfg.OnChunk(audio.NewChunk(ti.InputBufferAdcTime, samples, p.cfg.Format))
}

// Stop halts delivery without releasing the stream.
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil && p.started {
		if err := p.stream.Stop(); err != nil {
			return fmt.Errorf("failed to stop capture stream: %w", err)
		}
	}
	p.started = false
	return nil
}

// Close releases the stream and terminates PortAudio.
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if p.started {
		if err := p.stream.Stop(); err != nil {
			log.Printf("Warning: capture stream stop error: %v", err)
		}
		p.started = false
	}
	if err := p.stream.Close(); err != nil {
		log.Printf("Warning: capture stream close error: %v", err)
	}
	p.stream = nil
	return portaudio.Terminate()
}

// Now reports the stream clock. Before Start it reports zero.
func (p *PortAudio) Now() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return 0
	}
	return p.stream.Time()
}

// Device describes the stream, including latencies once Start has run.
func (p *PortAudio) Device() audio.DeviceInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev
}
