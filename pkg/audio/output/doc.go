// ABOUTME: Audio output package for scheduled playback
// ABOUTME: Provides Transport interface with oto and mock implementations
// Package output provides scheduled audio playback.
//
// A Transport plays pre-built buffers: one-shots in schedule order,
// then a looping buffer that repeats until stopped, the whole chain
// anchored to a single host time by PlayAt.
//
// Example:
//
//	out, err := output.NewOto(output.OtoConfig{Format: format, Clock: clock})
//	out.ScheduleOnce(bridge)
//	out.ScheduleLooping(loop)
//	out.PlayAt(startAt)
package output
