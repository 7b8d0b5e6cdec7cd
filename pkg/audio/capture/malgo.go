// ABOUTME: Malgo-based capture implementation using miniaudio
// ABOUTME: Stamps chunks by frame count against the callback arrival clock
package capture

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// Malgo captures from the default input device via miniaudio.
//
// miniaudio exposes no hardware timestamps, so chunks are stamped by
// frame count: the first callback fixes the stream origin against the
// source clock and every later chunk advances from it by exactly the
// frames delivered. Timestamps stay sample-contiguous even when
// callback scheduling jitters.
type Malgo struct {
	cfg   Config
	clock *hosttime.System

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	started  bool
	stamped  bool
	base     time.Duration
	frames   int64
}

// NewMalgo creates a malgo capture source. The device opens on Start.
func NewMalgo(cfg Config) (*Malgo, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Malgo{cfg: cfg, clock: hosttime.NewSystem()}, nil
}

// Start opens the default capture device and begins delivery.
func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	// Restart after Stop reuses the device but re-anchors the timeline,
	// since frames lost while stopped must not be counted.
	if m.device != nil {
		if err := m.device.Start(); err != nil {
			return fmt.Errorf("failed to restart capture device: %w", err)
		}
		m.started = true
		m.stamped = false
		m.frames = 0
		return nil
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(m.cfg.Format.Channels)
	deviceConfig.SampleRate = uint32(m.cfg.Format.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(m.cfg.ChunkFrames)
	deviceConfig.Alsa.NoMMap = 1

	onRecv := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		m.onCapture(pInputSamples, frameCount)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecv,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.device = device
	m.started = true
	m.stamped = false
	m.frames = 0

	log.Printf("Audio capture initialized: %dHz, %d channels, %d-frame periods (malgo)",
		m.cfg.Format.SampleRate, m.cfg.Format.Channels, m.cfg.ChunkFrames)

	return nil
}

// onCapture is called by malgo with each captured period.
func (m *Malgo) onCapture(pInput []byte, frameCount uint32) {
	samples := audio.Float32FromLE(pInput)

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	if !m.stamped {
		// The period delivered now ended now, so it started one period
		// ago on the source clock.
		m.base = m.clock.Now() - hosttime.Span(int(frameCount), m.cfg.Format.SampleRate)
		m.stamped = true
	}
	start := m.base + hosttime.Span(int(m.frames), m.cfg.Format.SampleRate)
	m.frames += int64(frameCount)
	m.mu.Unlock()

	m.cfg.OnChunk(audio.NewChunk(start, samples, m.cfg.Format))
}

// Stop halts delivery. The device stays initialized for a later Start.
func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil && m.started {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
	}
	m.started = false
	return nil
}

// Close releases the device and the malgo context.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = false
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// Now reports time on the source clock.
func (m *Malgo) Now() time.Duration {
	return m.clock.Now()
}

// Device describes the stream. miniaudio reports no capture latency, so
// the latency fields stay zero and press timestamps map through
// unadjusted.
func (m *Malgo) Device() audio.DeviceInfo {
	return audio.StaticDeviceInfo{
		Rate:     m.cfg.Format.SampleRate,
		Chans:    m.cfg.Format.Channels,
		IOBuffer: hosttime.Span(m.cfg.ChunkFrames, m.cfg.Format.SampleRate),
	}
}
