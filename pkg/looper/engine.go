// ABOUTME: Loop engine state machine reacting to presses and chunk arrivals
// ABOUTME: Drives the store, splicer and transport through a take's lifecycle
package looper

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/audio/output"
)

// ErrTimestampOrder reports a chunk timestamped entirely past the awaited
// stop boundary: the timing contract with the capture device is broken, and
// the engine fail-stops rather than guess.
var ErrTimestampOrder = errors.New("chunk timestamp past stop boundary")

// Config configures an Engine. Transport and Device are required; everything
// else has working defaults.
type Config struct {
	// Transport plays scheduled buffers. Required.
	Transport output.Transport

	// Device supplies the session's format and latency figures, read once
	// at construction. Required.
	Device audio.DeviceInfo

	// NoPreRoll disables seeding a new window with the chunk retained just
	// before the start press.
	NoPreRoll bool

	// NoLatencyComp removes the reported output latency from the safe-start
	// calculation.
	NoLatencyComp bool

	// RoundingSlackFrames overrides the splice rounding tolerance. Zero
	// means audio.DefaultRoundingSlack.
	RoundingSlackFrames int

	// OnStateChange, if set, is called on its own goroutine after every
	// state transition.
	OnStateChange func(State)

	// OnError, if set, is called on its own goroutine when the engine
	// fail-stops. The owner is expected to call Reset.
	OnError func(error)
}

// Status is a point-in-time snapshot for display.
type Status struct {
	State   State
	Take    Take
	HasTake bool
	Chunks  uint64
	Frames  uint64
	Faulted bool
}

// Engine is the loop state machine: idle, recording, awaitingStop, looping.
// A press starts a take, a second press stops it and begins seamless loop
// playback, a third press tears the loop down. Chunk arrivals and presses
// come from different threads; one mutex serializes them, and every handler
// is bounded and free of blocking I/O.
type Engine struct {
	mu sync.Mutex

	transport output.Transport
	store     *audio.Store
	format    audio.Format

	ioBuffer   time.Duration
	inLatency  time.Duration
	outLatency time.Duration

	preRoll bool
	slack   int

	state State
	take  *Take
	// playhead is the content time scheduled so far while the anchored
	// chain is being extended one-shot by one-shot.
	playhead time.Duration
	faulted  bool

	chunks uint64
	frames uint64

	onStateChange func(State)
	onError       func(error)
}

// NewEngine validates the configuration and returns an idle engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Device == nil {
		return nil, fmt.Errorf("device info is required")
	}
	format := audio.FormatOf(cfg.Device)
	if !format.Valid() {
		return nil, fmt.Errorf("unusable device format %+v", format)
	}

	slack := cfg.RoundingSlackFrames
	if slack == 0 {
		slack = audio.DefaultRoundingSlack
	}
	outLatency := cfg.Device.OutputLatency()
	if cfg.NoLatencyComp {
		outLatency = 0
	}

	return &Engine{
		transport:     cfg.Transport,
		store:         audio.NewStore(),
		format:        format,
		ioBuffer:      cfg.Device.IOBufferDuration(),
		inLatency:     cfg.Device.InputLatency(),
		outLatency:    outLatency,
		preRoll:       !cfg.NoPreRoll,
		slack:         slack,
		state:         State{Phase: PhaseIdle},
		onStateChange: cfg.OnStateChange,
		onError:       cfg.OnError,
	}, nil
}

// State returns the current state snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Status returns a display snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{State: e.state, Chunks: e.chunks, Frames: e.frames, Faulted: e.faulted}
	if e.take != nil {
		st.Take = *e.take
		st.HasTake = true
	}
	return st
}

// OnPress handles a user press stamped with the host time it happened.
func (e *Engine) OnPress(at time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.faulted {
		return
	}
	switch e.state.Phase {
	case PhaseIdle:
		e.beginRecording(at)
	case PhaseRecording:
		e.finishRecording(at)
	case PhaseAwaitingStop:
		// The stop boundary is already fixed; nothing to do.
	case PhaseLooping:
		e.teardown()
	}
}

// OnChunk accepts one capture delivery. Safe to call from the device
// callback: the serialized section is bounded and never blocks on I/O.
func (e *Engine) OnChunk(c *audio.Chunk) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.faulted {
		return
	}
	e.chunks++
	e.frames += uint64(c.Frames())
	e.store.RetainLast(c)

	switch e.state.Phase {
	case PhaseRecording:
		e.store.Append(c)
	case PhaseAwaitingStop:
		e.chunkWhileAwaiting(c)
	}
	// idle and looping only retain
}

// Reset unconditionally returns the engine to idle: playback stops, captured
// audio is dropped, and a fail-stopped engine becomes usable again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faulted = false
	e.teardown()
}

func (e *Engine) beginRecording(at time.Duration) {
	start := at + e.inLatency
	e.store.Clear()
	take := Take{ID: uuid.New(), Start: start}
	e.take = &take
	if e.preRoll {
		if c := e.store.Retained(); c != nil {
			e.store.Append(c)
		}
	}
	log.Printf("take %s: recording from %v", take.ShortID(), start)
	e.setState(State{Phase: PhaseRecording})
}

func (e *Engine) finishRecording(at time.Duration) {
	stop := at + e.inLatency
	take := e.take
	if stop <= take.Start {
		log.Printf("take %s: stop %v not after start %v, discarding", take.ShortID(), stop, take.Start)
		e.store.Clear()
		e.take = nil
		e.setState(State{Phase: PhaseIdle})
		return
	}
	take.End = stop

	if last := e.store.Last(); last != nil && last.End() >= stop {
		e.beginLoop()
		return
	}

	// Capture has not reached the boundary yet: anchor playback, bridge
	// what has arrived, and wait for the covering chunk.
	startAt, headTrunc := ComputeStart(e.transport.LastRenderTime(), e.ioBuffer, e.outLatency, stop)
	e.playhead = take.Start + headTrunc
	if last := e.store.Last(); last != nil && last.End() > e.playhead {
		bridge, err := audio.BuildRange(e.store.Chunks(), e.playhead, last.End(), e.format, e.slack)
		if err != nil {
			e.fault(err)
			return
		}
		e.transport.ScheduleOnce(bridge)
		e.playhead = last.End()
	}
	e.transport.PlayAt(startAt)
	log.Printf("take %s: awaiting stop at %v, playback anchored at %v (head truncated %v)",
		take.ShortID(), stop, startAt, headTrunc)
	e.setState(State{Phase: PhaseAwaitingStop, StopAt: stop})
}

// beginLoop handles the stop press arriving after capture already covers the
// whole window: bridge and loop are spliced and anchored in one shot.
func (e *Engine) beginLoop() {
	take := e.take
	startAt, headTrunc := ComputeStart(e.transport.LastRenderTime(), e.ioBuffer, e.outLatency, take.End)
	loop, err := audio.BuildRange(e.store.Chunks(), take.Start, take.End, e.format, e.slack)
	if err != nil {
		e.fault(err)
		return
	}
	bridgeFrom := take.Start + headTrunc
	if bridgeFrom < take.End {
		bridge, err := audio.BuildRange(e.store.Chunks(), bridgeFrom, take.End, e.format, e.slack)
		if err != nil {
			e.fault(err)
			return
		}
		e.transport.ScheduleOnce(bridge)
	} else {
		log.Printf("take %s: head truncation %v swallows the first pass", take.ShortID(), headTrunc)
	}
	e.transport.ScheduleLooping(loop)
	e.transport.PlayAt(startAt)
	e.store.Clear()
	log.Printf("take %s: looping %v, playback starts at %v", take.ShortID(), take.Duration(), startAt)
	e.setState(State{Phase: PhaseLooping})
}

func (e *Engine) chunkWhileAwaiting(c *audio.Chunk) {
	stop := e.state.StopAt
	if c.Start >= stop {
		e.fault(fmt.Errorf("%w: chunk starts at %v, stop boundary %v", ErrTimestampOrder, c.Start, stop))
		return
	}
	if c.End() < stop {
		e.store.Append(c)
		e.scheduleTail(c)
		return
	}

	// The covering chunk: trim to the boundary, play its tail, then splice
	// and schedule the finished loop.
	if err := c.TrimEndTo(stop); err != nil {
		e.fault(err)
		return
	}
	e.store.Append(c)
	e.scheduleTail(c)
	if e.faulted {
		return
	}
	take := e.take
	loop, err := audio.BuildRange(e.store.Chunks(), take.Start, take.End, e.format, e.slack)
	if err != nil {
		e.fault(err)
		return
	}
	e.transport.ScheduleLooping(loop)
	e.store.Clear()
	log.Printf("take %s: boundary chunk arrived, looping %v", take.ShortID(), take.Duration())
	e.setState(State{Phase: PhaseLooping})
}

// scheduleTail extends the anchored chain with the playable part of a fresh
// chunk. The chain is already committed through e.playhead, so anything
// earlier is clipped off.
func (e *Engine) scheduleTail(c *audio.Chunk) {
	if c.End() <= e.playhead {
		return
	}
	if c.Start >= e.playhead {
		e.transport.ScheduleOnce(&audio.Buffer{Start: c.Start, Samples: c.Samples, Format: c.Format})
		e.playhead = c.End()
		return
	}
	b, err := audio.BuildRange([]*audio.Chunk{c}, e.playhead, c.End(), e.format, e.slack)
	if err != nil {
		e.fault(err)
		return
	}
	e.transport.ScheduleOnce(b)
	e.playhead = c.End()
}

func (e *Engine) teardown() {
	e.transport.Stop()
	e.store.Reset()
	if e.take != nil {
		log.Printf("take %s: stopped, back to idle", e.take.ShortID())
	}
	e.take = nil
	e.setState(State{Phase: PhaseIdle})
}

// fault fail-stops the engine. Events are ignored until Reset.
func (e *Engine) fault(err error) {
	e.faulted = true
	log.Printf("engine fault: %v", err)
	if e.onError != nil {
		go e.onError(err)
	}
}

func (e *Engine) setState(s State) {
	e.state = s
	if e.onStateChange != nil {
		go e.onStateChange(s)
	}
}
