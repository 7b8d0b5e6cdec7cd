// ABOUTME: Playback start scheduling math
// ABOUTME: Computes the safe future start time and the head truncation
package looper

import "time"

// ComputeStart computes when freshly scheduled playback can safely begin.
//
// safeStart is the earliest host time a new schedule is guaranteed not to be
// dropped: the current render position plus one device buffer plus the output
// latency (pass zero latency to disable compensation). Playback cannot start
// in the past, so startAt is the later of safeStart and requestedEnd, and
// headTruncation is how far past requestedEnd that lands: the amount the
// loop's first audible pass must be shifted so the listener still hears loop
// content aligned with the requested boundary.
func ComputeStart(lastRender, bufferDuration, outputLatency, requestedEnd time.Duration) (startAt, headTruncation time.Duration) {
	safeStart := lastRender + bufferDuration + outputLatency
	startAt = safeStart
	if requestedEnd > startAt {
		startAt = requestedEnd
	}
	return startAt, startAt - requestedEnd
}
