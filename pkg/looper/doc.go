// ABOUTME: Loop engine package driving press-to-press capture
// ABOUTME: Provides Engine state machine and playback start scheduling
// Package looper implements the four-state loop engine at the heart of
// stomploop: idle, recording, awaitingStop and looping.
//
// A press while idle starts recording and fixes the window start. A press
// while recording fixes the stop boundary; if capture already covers the
// whole window the loop starts immediately, otherwise the engine enters
// awaitingStop and keeps scheduling freshly captured chunks as one-shot
// continuations until the chunk covering the boundary arrives. That chunk is
// trimmed in place to the boundary, the full loop buffer is spliced, and the
// loop repeats until a third press tears it down.
//
// Playback can never start in the past: ComputeStart picks the later of the
// requested boundary and the earliest safe transport time, and the resulting
// head truncation shifts only the first audible pass, never the loop buffer
// itself.
//
// The engine is driven entirely by OnPress and OnChunk events, serialized by
// one internal mutex. It talks to the outside world through the
// output.Transport and audio.DeviceInfo interfaces and two optional callbacks.
package looper
