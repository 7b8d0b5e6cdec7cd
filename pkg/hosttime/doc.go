// ABOUTME: Host clock package for timestamping and scheduling
// ABOUTME: Provides Clock implementations and frame conversion math
// Package hosttime provides the monotonic host clock used to timestamp
// captured audio and schedule playback.
//
// All times in the looper are time.Duration values measured from a single
// clock origin, never wall-clock time. The package provides two Clock
// implementations:
//   - System: backed by the process monotonic clock, for live capture
//   - Manual: hand-advanced, for tests and offline simulation
//
// It also provides Frames and Span, the rounding conversions between time
// spans and frame counts that every sample-accurate calculation goes through.
//
// Example:
//
//	clock := hosttime.NewSystem()
//	frames := hosttime.Frames(20*time.Millisecond, 48000) // 960
//	span := hosttime.Span(frames, 48000)                  // 20ms
package hosttime
