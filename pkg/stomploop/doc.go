// ABOUTME: High-level stomploop library API
// ABOUTME: Provides the Looper API for most use cases
// Package stomploop provides a press-to-loop live looper.
//
// This is the main entry point for most library users: a Looper opens a
// capture source and an output device, and two presses of Press record
// a take and play it back as a seamless loop.
//
// For lower-level control, see the audio, looper, capture and output
// packages.
//
// Example:
//
//	looper, err := stomploop.NewLooper(stomploop.LooperConfig{
//	    Input:      "malgo",
//	    SampleRate: 48000,
//	    Channels:   1,
//	})
//	err = looper.Start()
//	looper.Press() // start recording
//	looper.Press() // stop and loop
package stomploop
