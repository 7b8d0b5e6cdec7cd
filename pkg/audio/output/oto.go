// ABOUTME: Oto-based playback transport with sample-accurate scheduling
// ABOUTME: Feeds a persistent player from an anchored segment queue
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/stomploop/stomploop-go/pkg/audio"
	"github.com/stomploop/stomploop-go/pkg/hosttime"
)

const sampleBytes = 4 // little-endian float32

// DefaultBufferSize is the device buffer requested from oto when the
// config does not specify one. Smaller buffers reduce scheduling error
// at the cost of underrun risk.
const DefaultBufferSize = 50 * time.Millisecond

// OtoConfig configures the oto playback transport.
type OtoConfig struct {
	Format audio.Format
	// Clock supplies host time. Use the capture source here so scheduled
	// times and chunk timestamps share one timebase.
	Clock hosttime.Clock
	// BufferSize is the device buffer duration. Zero selects
	// DefaultBufferSize.
	BufferSize time.Duration
}

// Oto plays scheduled buffers through the system output device.
//
// A persistent player drains a segment queue. Until PlayAt anchors the
// queue it renders silence, so the device stays warm and the first real
// sample is not delayed by device spin-up. Anchor accuracy is bounded
// by the device buffer: a sample handed to the player now is audible
// roughly one buffer later.
type Oto struct {
	otoCtx *oto.Context
	player *oto.Player
	queue  *playQueue
	clock  hosttime.Clock
	lead   time.Duration
}

// NewOto opens the output device and starts the render loop.
func NewOto(cfg OtoConfig) (*Oto, error) {
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("unusable output format: %+v", cfg.Format)
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("output clock is required")
	}
	lead := cfg.BufferSize
	if lead <= 0 {
		lead = DefaultBufferSize
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.Format.SampleRate,
		ChannelCount: cfg.Format.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   lead,
	}
	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	q := newPlayQueue(cfg.Format)
	player := otoCtx.NewPlayer(q)
	player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels, %v buffer",
		cfg.Format.SampleRate, cfg.Format.Channels, lead)

	return &Oto{
		otoCtx: otoCtx,
		player: player,
		queue:  q,
		clock:  cfg.Clock,
		lead:   lead,
	}, nil
}

// ScheduleOnce queues buf to play once, after everything already queued.
func (o *Oto) ScheduleOnce(buf *audio.Buffer) {
	o.queue.push(buf.Samples, false)
}

// ScheduleLooping queues buf to repeat until Stop. Nothing queued after
// a looping segment will ever be reached.
func (o *Oto) ScheduleLooping(buf *audio.Buffer) {
	o.queue.push(buf.Samples, true)
}

// PlayAt anchors the queued chain at host time at. Anchors closer than
// one device buffer play as soon as possible.
func (o *Oto) PlayAt(at time.Duration) {
	o.queue.anchor(leadInFrames(at, o.clock.Now(), o.lead, o.queue.format.SampleRate))
}

// Stop drops all queued audio and the anchor. The device stays open and
// renders silence until the next PlayAt.
func (o *Oto) Stop() {
	o.queue.clear()
}

// LastRenderTime reports the host time of the device render frontier.
// The render loop runs against the wall clock, so now is the best
// estimate available without a device timestamp API.
func (o *Oto) LastRenderTime() time.Duration {
	return o.clock.Now()
}

// BufferDuration reports the device buffer length. Schedulers should
// treat it as the output latency of this transport.
func (o *Oto) BufferDuration() time.Duration {
	return o.lead
}

// Underruns reports how many frames of silence were rendered because
// the queue ran dry after its anchor.
func (o *Oto) Underruns() int64 {
	return o.queue.underrunFrames()
}

// SetVolume sets playback volume (0-100).
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.queue.setVolume(volume)
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state.
func (o *Oto) SetMuted(muted bool) {
	o.queue.setMuted(muted)
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume.
func (o *Oto) GetVolume() int {
	return o.queue.volumeLevel()
}

// IsMuted returns mute state.
func (o *Oto) IsMuted() bool {
	return o.queue.isMuted()
}

// Close tears down the player. The oto context survives (a process gets
// exactly one) but is suspended.
func (o *Oto) Close() error {
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	return nil
}

// leadInFrames converts a scheduled start into frames of silence the
// queue owes before its first segment.
func leadInFrames(at, now, lead time.Duration, rate int) int {
	delay := at - now - lead
	if delay <= 0 {
		return 0
	}
	return hosttime.Frames(delay, rate)
}

// playQueue is the io.Reader behind the oto player. It renders queued
// segments as little-endian float32, silence before the anchor point
// and again if the queue runs dry.
type playQueue struct {
	format audio.Format

	mu       sync.Mutex
	segments []segment
	pos      int // samples consumed from segments[0]
	anchored bool
	silence  int   // lead-in samples still owed
	underrun int64 // post-anchor silence samples rendered
	volume   int
	muted    bool
}

type segment struct {
	samples []float32
	loop    bool
}

func newPlayQueue(f audio.Format) *playQueue {
	return &playQueue{format: f, volume: 100}
}

func (q *playQueue) push(samples []float32, loop bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.segments = append(q.segments, segment{samples: samples, loop: loop})
}

func (q *playQueue) anchor(silenceFrames int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.anchored = true
	q.silence = silenceFrames * q.format.Channels
}

func (q *playQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.segments = nil
	q.pos = 0
	q.anchored = false
	q.silence = 0
}

func (q *playQueue) underrunFrames() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.underrun / int64(q.format.Channels)
}

func (q *playQueue) setVolume(volume int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.volume = volume
}

func (q *playQueue) setMuted(muted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.muted = muted
}

func (q *playQueue) volumeLevel() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.volume
}

func (q *playQueue) isMuted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.muted
}

// multiplier calculates the volume multiplier. Callers hold q.mu.
func (q *playQueue) multiplier() float64 {
	if q.muted {
		return 0
	}
	return float64(q.volume) / 100.0
}

// Read renders up to len(p) bytes of interleaved float32 audio. It
// never blocks and never errors; a dry queue renders silence.
func (q *playQueue) Read(p []byte) (int, error) {
	n := len(p) / sampleBytes * sampleBytes
	if n == 0 {
		// Sub-sample read, keep the stream alive
		return zeroFill(p), nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	gain := q.multiplier()

	off := 0
	for off < n {
		switch {
		case !q.anchored:
			off += zeroFill(p[off:n])

		case q.silence > 0:
			want := n - off
			if limit := q.silence * sampleBytes; want > limit {
				want = limit
			}
			filled := zeroFill(p[off : off+want])
			q.silence -= filled / sampleBytes
			off += filled

		case len(q.segments) == 0:
			filled := zeroFill(p[off:n])
			q.underrun += int64(filled / sampleBytes)
			off += filled

		default:
			seg := q.segments[0]
			if len(seg.samples) == 0 {
				q.segments = q.segments[1:]
				q.pos = 0
				continue
			}
			want := (n - off) / sampleBytes
			if avail := len(seg.samples) - q.pos; want > avail {
				want = avail
			}
			for _, s := range seg.samples[q.pos : q.pos+want] {
				if gain != 1 {
					v := float64(s) * gain
					if v > 1 {
						v = 1
					} else if v < -1 {
						v = -1
					}
					s = float32(v)
				}
				binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s))
				off += sampleBytes
			}
			q.pos += want
			if q.pos == len(seg.samples) {
				if seg.loop {
					q.pos = 0
				} else {
					q.segments = q.segments[1:]
					q.pos = 0
				}
			}
		}
	}
	return n, nil
}

func zeroFill(p []byte) int {
	for i := range p {
		p[i] = 0
	}
	return len(p)
}
