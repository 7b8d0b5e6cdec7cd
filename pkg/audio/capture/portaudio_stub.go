//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"fmt"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

// PortAudio capture implementation (stub)
type PortAudio struct {
	cfg Config
}

// NewPortAudio creates a PortAudio capture source (stub)
func NewPortAudio(cfg Config) (*PortAudio, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &PortAudio{cfg: cfg}, nil
}

// Start begins capture
func (p *PortAudio) Start() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Stop halts delivery
func (p *PortAudio) Stop() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases the device
func (p *PortAudio) Close() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Now reports the stream clock
func (p *PortAudio) Now() time.Duration {
	return 0
}

// Device describes the stream
func (p *PortAudio) Device() audio.DeviceInfo {
	return audio.StaticDeviceInfo{
		Rate:     p.cfg.Format.SampleRate,
		Chans:    p.cfg.Format.Channels,
		IOBuffer: hosttime.Span(p.cfg.ChunkFrames, p.cfg.Format.SampleRate),
	}
}
