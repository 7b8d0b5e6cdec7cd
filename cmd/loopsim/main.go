// ABOUTME: Offline looper simulation on a manual clock
// ABOUTME: Scripts a two-press session and prints the schedule it produces
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/audio/capture"
	"github.com/stomploop/stomploop-go/pkg/audio/output"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
	"github.com/stomploop/stomploop-go/pkg/looper"
)

var (
	rate    = flag.Int("sample-rate", 48000, "Simulated sample rate in Hz")
	frames  = flag.Int("frames", 960, "Frames per simulated chunk")
	loopLen = flag.Duration("loop", 1490*time.Millisecond, "Distance between the two presses")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	fmt.Println("=== Stomploop Offline Simulation ===")
	fmt.Println("This simulation will:")
	fmt.Println("1. Deliver tone chunks on a manual clock, no devices involved")
	fmt.Println("2. Press at 500ms and again one loop length later")
	fmt.Println("3. Print the buffers and anchor the engine scheduled")
	fmt.Println()

	format := audio.Format{SampleRate: *rate, Channels: 1}
	chunkDur := hosttime.Span(*frames, *rate)

	clock := hosttime.NewManual(0)
	mock := output.NewMock()

	engine, err := looper.NewEngine(looper.Config{
		Transport: mock,
		Device: audio.StaticDeviceInfo{
			Rate:       *rate,
			Chans:      1,
			IOBuffer:   chunkDur,
			OutLatency: 10 * time.Millisecond,
		},
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	tone, err := capture.NewTone(capture.ToneConfig{
		Config: capture.Config{
			Format:      format,
			ChunkFrames: *frames,
			OnChunk:     engine.OnChunk,
		},
		NoPacing: true,
		Clock:    clock,
	})
	if err != nil {
		log.Fatalf("Failed to create tone source: %v", err)
	}
	if err := tone.Start(); err != nil {
		log.Fatalf("Failed to start tone source: %v", err)
	}

	// Each step advances the clock one chunk, then delivers the chunk that
	// just finished capturing. The mock renders in lockstep with the clock.
	step := func() {
		clock.Advance(chunkDur)
		tone.Emit()
		mock.SetRenderTime(clock.Now())
	}
	pumpTo := func(deadline time.Duration) {
		for clock.Now()+chunkDur <= deadline {
			step()
		}
	}

	pressStart := 500 * time.Millisecond
	pressStop := pressStart + *loopLen

	pumpTo(pressStart)
	clock.Set(pressStart)
	engine.OnPress(clock.Now())
	fmt.Printf("[%8v] press -> %v\n", clock.Now(), engine.State())

	pumpTo(pressStop)
	clock.Set(pressStop)
	engine.OnPress(clock.Now())
	fmt.Printf("[%8v] press -> %v\n", clock.Now(), engine.State())

	// If the stop press landed past delivered audio, keep capturing until
	// the chunk covering the boundary flips the engine into looping.
	for i := 0; i < 10 && engine.State().Phase == looper.PhaseAwaitingStop; i++ {
		if engine.Status().Faulted {
			log.Fatalf("Engine faulted while awaiting the boundary chunk")
		}
		step()
		fmt.Printf("[%8v] chunk delivered -> %v\n", clock.Now(), engine.State())
	}

	if engine.State().Phase != looper.PhaseLooping {
		log.Fatalf("Expected the engine to be looping, got %v", engine.State())
	}

	// A little more capture while the loop plays, then tear it down.
	pumpTo(clock.Now() + 100*time.Millisecond)
	engine.OnPress(clock.Now())
	fmt.Printf("[%8v] press -> %v\n", clock.Now(), engine.State())

	fmt.Println()
	fmt.Println("Schedule:")
	for _, b := range mock.OneShots() {
		fmt.Printf("  one-shot at %8v: %6d frames (%v)\n", b.Start, b.Frames(), b.Duration())
	}
	for _, b := range mock.Loops() {
		fmt.Printf("  loop     at %8v: %6d frames (%v)\n", b.Start, b.Frames(), b.Duration())
	}
	for _, at := range mock.Anchors() {
		fmt.Printf("  anchor   at %8v\n", at)
	}
	fmt.Printf("  stops: %d\n", mock.Stops())

	status := engine.Status()
	fmt.Printf("\nCaptured %d chunks, %d frames total\n", status.Chunks, status.Frames)
	log.Printf("Simulation complete")
}
