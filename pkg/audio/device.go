// ABOUTME: Device/session info interface for latency and format queries
// ABOUTME: Injected read-only figures, no ambient audio-session singletons
package audio

import "time"

// DeviceInfo exposes the read-only device and session figures the engine
// needs for splicing and scheduling. It is injected once at construction;
// nothing reads the audio session ambiently.
type DeviceInfo interface {
	SampleRate() int
	Channels() int
	IOBufferDuration() time.Duration
	InputLatency() time.Duration
	OutputLatency() time.Duration
}

// StaticDeviceInfo is a DeviceInfo with fixed values, used by backends that
// measure their figures once at open time, and by tests.
type StaticDeviceInfo struct {
	Rate       int
	Chans      int
	IOBuffer   time.Duration
	InLatency  time.Duration
	OutLatency time.Duration
}

func (d StaticDeviceInfo) SampleRate() int                 { return d.Rate }
func (d StaticDeviceInfo) Channels() int                   { return d.Chans }
func (d StaticDeviceInfo) IOBufferDuration() time.Duration { return d.IOBuffer }
func (d StaticDeviceInfo) InputLatency() time.Duration     { return d.InLatency }
func (d StaticDeviceInfo) OutputLatency() time.Duration    { return d.OutLatency }

// FormatOf builds the stream Format from a device's reported figures.
func FormatOf(d DeviceInfo) Format {
	return Format{SampleRate: d.SampleRate(), Channels: d.Channels()}
}
