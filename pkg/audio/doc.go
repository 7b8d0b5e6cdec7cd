// ABOUTME: Audio fundamentals package providing core types and the splicer
// ABOUTME: Defines Format, Chunk, Buffer, Store, DeviceInfo and BuildRange
// Package audio provides the fundamental types of the looper's capture path.
//
// Core types:
//   - Format: the fixed stream format (sample rate, channels), float32 samples
//   - Chunk: one timestamped delivery from the capture device
//   - Buffer: one contiguous spliced range ready for the playback transport
//   - Store: the retained pre-roll chunk plus the recorded window
//   - DeviceInfo: injected read-only latency and format figures
//
// BuildRange is the range splicer: given the window's chunks and an exact
// [start, end) host-time window, it assembles one contiguous buffer,
// truncating partial chunks at both edges and tolerating the few samples of
// gap or overlap that computed chunk boundaries accumulate from rounding.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2}
//	buf, err := audio.BuildRange(store.Chunks(), start, stop, format, audio.DefaultRoundingSlack)
package audio
