// ABOUTME: Audio capture package for timestamped input
// ABOUTME: Provides Source interface with malgo, portaudio and tone backends
// Package capture provides timestamped audio input.
//
// A Source stamps every chunk on its own clock and exposes that clock
// through Now, so press timestamps and playback schedules can agree
// with capture time.
//
// Example:
//
//	src, err := capture.Open("malgo", capture.Config{
//		Format:  audio.Format{SampleRate: 48000, Channels: 1},
//		OnChunk: engine.OnChunk,
//	})
//	err = src.Start()
package capture
