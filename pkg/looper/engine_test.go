// ABOUTME: Tests for the loop engine state machine
// ABOUTME: Drives presses and chunks against a mock transport
package looper

import (
	"errors"
	"testing"
	"time"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/audio/output"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

func testDevice() audio.StaticDeviceInfo {
	return audio.StaticDeviceInfo{
		Rate:     48000,
		Chans:    1,
		IOBuffer: 20 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T, mods ...func(*Config)) (*Engine, *output.Mock) {
	t.Helper()
	m := output.NewMock()
	cfg := Config{Transport: m, Device: testDevice()}
	for _, mod := range mods {
		mod(&cfg)
	}
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, m
}

// feed delivers a ramp chunk spanning [start, start+frames/rate) whose
// samples encode their absolute frame index.
func feed(e *Engine, start time.Duration, frames int) *audio.Chunk {
	f := audio.Format{SampleRate: 48000, Channels: 1}
	samples := make([]float32, frames)
	base := hosttime.Frames(start, f.SampleRate)
	for i := range samples {
		samples[i] = float32(base + i)
	}
	c := audio.NewChunk(start, samples, f)
	e.OnChunk(c)
	return c
}

func TestNewEngineValidation(t *testing.T) {
	m := output.NewMock()

	if _, err := NewEngine(Config{Device: testDevice()}); err == nil {
		t.Error("expected error for missing transport")
	}
	if _, err := NewEngine(Config{Transport: m}); err == nil {
		t.Error("expected error for missing device info")
	}
	if _, err := NewEngine(Config{Transport: m, Device: audio.StaticDeviceInfo{Chans: 1}}); err == nil {
		t.Error("expected error for unusable format")
	}

	e, err := NewEngine(Config{Transport: m, Device: testDevice()})
	if err != nil {
		t.Fatalf("valid config: %v", err)
	}
	if got := e.State().Phase; got != PhaseIdle {
		t.Errorf("initial phase: expected idle, got %v", got)
	}
}

func TestFullCoverageLoop(t *testing.T) {
	e, m := newTestEngine(t)

	e.OnPress(1 * time.Second)
	if got := e.State().Phase; got != PhaseRecording {
		t.Fatalf("after start press: expected recording, got %v", got)
	}

	feed(e, 1*time.Second, 4800)             // [1s, 1.1s)
	feed(e, 1100*time.Millisecond, 9600)     // [1.1s, 1.3s)
	m.SetRenderTime(1290 * time.Millisecond) // safe start 1.31s, past the boundary
	e.OnPress(1300 * time.Millisecond)

	if got := e.State().Phase; got != PhaseLooping {
		t.Fatalf("after stop press: expected looping, got %v", got)
	}

	loops := m.Loops()
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop buffer, got %d", len(loops))
	}
	loop := loops[0]
	if loop.Start != 1*time.Second {
		t.Errorf("loop start: expected 1s, got %v", loop.Start)
	}
	if got := loop.Frames(); got != 14400 {
		t.Errorf("loop frames: expected 14400, got %d", got)
	}
	if got := loop.Samples[0]; got != 48000 {
		t.Errorf("loop first frame: expected 48000, got %v", got)
	}

	anchors := m.Anchors()
	if len(anchors) != 1 || anchors[0] != 1310*time.Millisecond {
		t.Errorf("anchors: expected [1.31s], got %v", anchors)
	}

	// The 10ms head truncation comes off the bridge, never the loop
	shots := m.OneShots()
	if len(shots) != 1 {
		t.Fatalf("expected 1 bridge buffer, got %d", len(shots))
	}
	if shots[0].Start != 1010*time.Millisecond {
		t.Errorf("bridge start: expected 1.01s, got %v", shots[0].Start)
	}
	if got := shots[0].Frames(); got != 13920 {
		t.Errorf("bridge frames: expected 13920, got %d", got)
	}
}

func TestAwaitingStopFlow(t *testing.T) {
	e, m := newTestEngine(t)

	e.OnPress(1 * time.Second)
	feed(e, 1*time.Second, 9600) // [1s, 1.2s), boundary not reached
	m.SetRenderTime(1190 * time.Millisecond)
	e.OnPress(1300 * time.Millisecond)

	want := State{Phase: PhaseAwaitingStop, StopAt: 1300 * time.Millisecond}
	if got := e.State(); got != want {
		t.Fatalf("after stop press: expected %v, got %v", want, got)
	}

	// Safe start 1.21s is before the boundary, so playback anchors exactly
	// at the stop press and nothing is truncated.
	if anchors := m.Anchors(); len(anchors) != 1 || anchors[0] != 1300*time.Millisecond {
		t.Fatalf("anchors: expected [1.3s], got %v", anchors)
	}
	shots := m.OneShots()
	if len(shots) != 1 || shots[0].Start != 1*time.Second || shots[0].Frames() != 9600 {
		t.Fatalf("bridge: expected [1s, 1.2s), got %+v", shots)
	}

	// A chunk short of the boundary extends the chain and stays awaiting
	feed(e, 1200*time.Millisecond, 2400) // [1.2s, 1.25s)
	if got := e.State(); got != want {
		t.Fatalf("after partial chunk: expected %v, got %v", want, got)
	}
	shots = m.OneShots()
	if len(shots) != 2 || shots[1].Start != 1200*time.Millisecond || shots[1].Frames() != 2400 {
		t.Fatalf("continuation: expected [1.2s, 1.25s), got %+v", shots[len(shots)-1])
	}

	// The covering chunk is trimmed to the boundary and completes the loop
	final := feed(e, 1250*time.Millisecond, 4800) // [1.25s, 1.35s)
	if got := e.State().Phase; got != PhaseLooping {
		t.Fatalf("after covering chunk: expected looping, got %v", got)
	}
	if got := final.Frames(); got != 2400 {
		t.Errorf("covering chunk trimmed: expected 2400 frames, got %d", got)
	}
	if got := final.End(); got != 1300*time.Millisecond {
		t.Errorf("covering chunk end: expected 1.3s, got %v", got)
	}

	shots = m.OneShots()
	if len(shots) != 3 || shots[2].Frames() != 2400 {
		t.Fatalf("expected 3 one-shots ending with the trimmed tail, got %d", len(shots))
	}
	loops := m.Loops()
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop buffer, got %d", len(loops))
	}
	if loops[0].Start != 1*time.Second || loops[0].Frames() != 14400 {
		t.Errorf("loop: expected [1s, 1.3s) = 14400 frames, got start %v frames %d",
			loops[0].Start, loops[0].Frames())
	}
}

func TestLoopTeardownStartsFresh(t *testing.T) {
	e, m := newTestEngine(t)

	e.OnPress(1 * time.Second)
	feed(e, 1*time.Second, 4800)
	m.SetRenderTime(1090 * time.Millisecond)
	e.OnPress(1100 * time.Millisecond)
	if got := e.State().Phase; got != PhaseLooping {
		t.Fatalf("setup: expected looping, got %v", got)
	}

	e.OnPress(2 * time.Second)
	if got := e.State().Phase; got != PhaseIdle {
		t.Fatalf("after teardown press: expected idle, got %v", got)
	}
	if got := m.Stops(); got != 1 {
		t.Errorf("expected 1 transport stop, got %d", got)
	}
	if st := e.Status(); st.HasTake {
		t.Error("expected take discarded after teardown")
	}

	// The next take must not inherit anything from the discarded window
	e.OnPress(2100 * time.Millisecond)
	feed(e, 2100*time.Millisecond, 4800)
	m.SetRenderTime(2190 * time.Millisecond)
	e.OnPress(2200 * time.Millisecond)

	loops := m.Loops()
	if len(loops) != 2 {
		t.Fatalf("expected 2 loop buffers, got %d", len(loops))
	}
	if loops[1].Start != 2100*time.Millisecond || loops[1].Frames() != 4800 {
		t.Errorf("fresh loop: expected [2.1s, 2.2s), got start %v frames %d",
			loops[1].Start, loops[1].Frames())
	}
}

func TestPressWhileAwaitingIgnored(t *testing.T) {
	e, m := newTestEngine(t)

	e.OnPress(1 * time.Second)
	feed(e, 1*time.Second, 4800)
	m.SetRenderTime(1190 * time.Millisecond)
	e.OnPress(1300 * time.Millisecond)

	want := State{Phase: PhaseAwaitingStop, StopAt: 1300 * time.Millisecond}
	if got := e.State(); got != want {
		t.Fatalf("setup: expected %v, got %v", want, got)
	}
	anchorsBefore := len(m.Anchors())
	shotsBefore := len(m.OneShots())

	e.OnPress(1350 * time.Millisecond)

	if got := e.State(); got != want {
		t.Errorf("press while awaiting: expected %v unchanged, got %v", want, got)
	}
	if len(m.Anchors()) != anchorsBefore || len(m.OneShots()) != shotsBefore {
		t.Error("press while awaiting must not touch the transport")
	}
}

func TestTimestampOrderFault(t *testing.T) {
	errCh := make(chan error, 1)
	e, m := newTestEngine(t, func(c *Config) {
		c.OnError = func(err error) { errCh <- err }
	})

	e.OnPress(1 * time.Second)
	feed(e, 1*time.Second, 4800)
	e.OnPress(1300 * time.Millisecond)
	if got := e.State().Phase; got != PhaseAwaitingStop {
		t.Fatalf("setup: expected awaitingStop, got %v", got)
	}

	// A chunk starting past the boundary breaks the timing contract
	feed(e, 1350*time.Millisecond, 4800)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrTimestampOrder) {
			t.Fatalf("expected ErrTimestampOrder, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
	if !e.Status().Faulted {
		t.Fatal("expected faulted status")
	}

	// Fail-stop: events are ignored until Reset
	chunksBefore := e.Status().Chunks
	feed(e, 1400*time.Millisecond, 4800)
	if got := e.Status().Chunks; got != chunksBefore {
		t.Error("faulted engine must ignore chunks")
	}
	e.OnPress(2 * time.Second)
	if got := e.State().Phase; got != PhaseAwaitingStop {
		t.Error("faulted engine must ignore presses")
	}

	e.Reset()
	if got := e.State().Phase; got != PhaseIdle {
		t.Fatalf("after Reset: expected idle, got %v", got)
	}
	if e.Status().Faulted {
		t.Error("Reset must clear the fault")
	}
	if got := m.Stops(); got != 1 {
		t.Errorf("Reset must stop the transport, got %d stops", got)
	}

	e.OnPress(3 * time.Second)
	if got := e.State().Phase; got != PhaseRecording {
		t.Errorf("after Reset: expected engine usable again, got %v", got)
	}
}

func TestPreRollSeed(t *testing.T) {
	t.Run("seeded", func(t *testing.T) {
		e, m := newTestEngine(t)

		// Delivered while idle: only retained. The press lands inside its
		// span, so the seeded chunk must cover the window head.
		feed(e, 990*time.Millisecond, 960) // [0.99s, 1.01s)
		e.OnPress(1 * time.Second)
		feed(e, 1010*time.Millisecond, 4800) // [1.01s, 1.11s)
		m.SetRenderTime(1100 * time.Millisecond)
		e.OnPress(1110 * time.Millisecond)

		loops := m.Loops()
		if len(loops) != 1 {
			t.Fatalf("expected 1 loop buffer, got %d", len(loops))
		}
		if got := loops[0].Frames(); got != 5280 {
			t.Errorf("loop frames: expected 5280, got %d", got)
		}
		if got := loops[0].Samples[0]; got != 48000 {
			t.Errorf("loop head: expected frame 48000 from the seeded chunk, got %v", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		e, m := newTestEngine(t, func(c *Config) { c.NoPreRoll = true })

		feed(e, 990*time.Millisecond, 960)
		e.OnPress(1 * time.Second)
		feed(e, 1010*time.Millisecond, 4800)
		m.SetRenderTime(1100 * time.Millisecond)
		e.OnPress(1110 * time.Millisecond)

		loops := m.Loops()
		if len(loops) != 1 {
			t.Fatalf("expected 1 loop buffer, got %d", len(loops))
		}
		// Without pre-roll the audio before the first in-window delivery
		// is gone
		if got := loops[0].Frames(); got != 4800 {
			t.Errorf("loop frames: expected 4800, got %d", got)
		}
	})
}

func TestDegenerateStopAborts(t *testing.T) {
	e, m := newTestEngine(t)

	e.OnPress(1 * time.Second)
	feed(e, 1*time.Second, 960)
	e.OnPress(1 * time.Second) // stop not after start

	if got := e.State().Phase; got != PhaseIdle {
		t.Fatalf("expected idle after degenerate stop, got %v", got)
	}
	if len(m.Loops()) != 0 || len(m.Anchors()) != 0 || len(m.OneShots()) != 0 {
		t.Error("degenerate stop must not schedule anything")
	}
	if e.Status().HasTake {
		t.Error("expected take discarded")
	}
}

func TestChunksWhileIdleOnlyRetained(t *testing.T) {
	e, m := newTestEngine(t)

	feed(e, 0, 960)
	feed(e, 20*time.Millisecond, 960)

	if got := e.State().Phase; got != PhaseIdle {
		t.Errorf("chunks must not change state: expected idle, got %v", got)
	}
	if got := e.Status().Chunks; got != 2 {
		t.Errorf("expected 2 chunks counted, got %d", got)
	}
	if len(m.OneShots()) != 0 {
		t.Error("idle chunks must not reach the transport")
	}
}

func TestInputLatencyShiftsWindow(t *testing.T) {
	e, m := newTestEngine(t, func(c *Config) {
		d := testDevice()
		d.InLatency = 5 * time.Millisecond
		c.Device = d
	})

	e.OnPress(995 * time.Millisecond) // window start 1s
	feed(e, 1*time.Second, 4800)
	m.SetRenderTime(1090 * time.Millisecond)
	e.OnPress(1095 * time.Millisecond) // window end 1.1s

	loops := m.Loops()
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop buffer, got %d", len(loops))
	}
	if loops[0].Start != 1*time.Second || loops[0].Frames() != 4800 {
		t.Errorf("latency-shifted loop: expected [1s, 1.1s), got start %v frames %d",
			loops[0].Start, loops[0].Frames())
	}
}

func TestOutputLatencyCompensation(t *testing.T) {
	setup := func(t *testing.T, noComp bool) *output.Mock {
		t.Helper()
		e, m := newTestEngine(t, func(c *Config) {
			d := testDevice()
			d.OutLatency = 15 * time.Millisecond
			c.Device = d
			c.NoLatencyComp = noComp
		})
		e.OnPress(1 * time.Second)
		feed(e, 1*time.Second, 4800)
		m.SetRenderTime(1200 * time.Millisecond) // render already past the boundary
		e.OnPress(1100 * time.Millisecond)
		if got := e.State().Phase; got != PhaseLooping {
			t.Fatalf("setup: expected looping, got %v", got)
		}
		return m
	}

	t.Run("compensated", func(t *testing.T) {
		m := setup(t, false)
		if anchors := m.Anchors(); len(anchors) != 1 || anchors[0] != 1235*time.Millisecond {
			t.Errorf("anchors: expected [1.235s], got %v", anchors)
		}
		// Truncation beyond the loop length swallows the bridge entirely
		if got := len(m.OneShots()); got != 0 {
			t.Errorf("expected no bridge, got %d one-shots", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		m := setup(t, true)
		if anchors := m.Anchors(); len(anchors) != 1 || anchors[0] != 1220*time.Millisecond {
			t.Errorf("anchors: expected [1.22s], got %v", anchors)
		}
	})
}
