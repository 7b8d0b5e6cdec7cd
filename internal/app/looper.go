// ABOUTME: Main looper application orchestration
// ABOUTME: Coordinates capture, loop engine, playback, and UI
package app

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stomploop/stomploop-go/internal/ui"
	"github.com/stomploop/stomploop-go/pkg/looper"
	"github.com/stomploop/stomploop-go/pkg/stomploop"
)

// Config holds looper application configuration
type Config struct {
	Input          string
	SampleRate     int
	Channels       int
	ChunkFrames    int
	OutputBufferMs int
	Volume         int
	NoPreRoll      bool
	NoLatencyComp  bool
	UseTUI         bool
}

// Looper represents the main looper application
type Looper struct {
	config  Config
	loop    *stomploop.Looper
	ctrl    *ui.Control
	tuiProg *tea.Program
	ctx     context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	lastState looper.State
	lastErr   error
}

// New creates a new looper application
func New(config Config) *Looper {
	ctx, cancel := context.WithCancel(context.Background())

	// Mirror the facade defaults so status reporting shows effective values
	if config.Input == "" {
		config.Input = "malgo"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 1
	}

	return &Looper{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens the devices and runs until Stop, a UI quit, or a headless
// quit command.
func (l *Looper) Start() error {
	loop, err := stomploop.NewLooper(stomploop.LooperConfig{
		Input:         l.config.Input,
		SampleRate:    l.config.SampleRate,
		Channels:      l.config.Channels,
		ChunkFrames:   l.config.ChunkFrames,
		OutputBuffer:  time.Duration(l.config.OutputBufferMs) * time.Millisecond,
		Volume:        l.config.Volume,
		NoPreRoll:     l.config.NoPreRoll,
		NoLatencyComp: l.config.NoLatencyComp,
		OnStateChange: l.noteState,
		OnError:       l.noteError,
	})
	if err != nil {
		return fmt.Errorf("failed to create looper: %w", err)
	}
	l.loop = loop

	if err := loop.Start(); err != nil {
		return fmt.Errorf("failed to start looper: %w", err)
	}

	if l.config.UseTUI {
		l.ctrl = ui.NewControl()

		tuiProg, err := ui.Run(l.ctrl)
		if err != nil {
			loop.Close()
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		l.tuiProg = tuiProg

		go l.tuiProg.Run()
		go l.forwardStatus()
		go l.handleControl()
	} else {
		go l.handleStdin()
	}

	// Wait for context cancellation
	<-l.ctx.Done()

	return nil
}

// noteState records engine state changes
func (l *Looper) noteState(state looper.State) {
	l.mu.Lock()
	l.lastState = state
	l.mu.Unlock()

	log.Printf("State: %v", state)
}

// noteError records engine faults
func (l *Looper) noteError(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()

	log.Printf("Looper error: %v", err)
}

// clearError drops the recorded fault after a reset
func (l *Looper) clearError() {
	l.mu.Lock()
	l.lastErr = nil
	l.mu.Unlock()
}

// State returns the last engine state reported by the looper
func (l *Looper) State() looper.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastState
}

// forwardStatus periodically pushes looper status into the TUI
func (l *Looper) forwardStatus() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.tuiProg.Send(l.statusMsg())

		case <-l.ctx.Done():
			return
		}
	}
}

// statusMsg snapshots the looper into a full TUI update
func (l *Looper) statusMsg() ui.StatusMsg {
	status := l.loop.Status()
	stats := l.loop.Stats()

	l.mu.Lock()
	lastErr := l.lastErr
	l.mu.Unlock()

	phase := status.State.Phase
	faulted := status.Faulted

	msg := ui.StatusMsg{
		Phase:      &phase,
		StopAt:     status.State.StopAt,
		Faulted:    &faulted,
		Input:      l.config.Input,
		SampleRate: l.config.SampleRate,
		Channels:   l.config.Channels,
		Volume:     l.loop.Volume(),
		Chunks:     stats.Chunks,
		Frames:     stats.Frames,
		Underruns:  stats.Underruns,
	}

	if status.HasTake {
		msg.TakeID = status.Take.ShortID()
		msg.TakeStart = status.Take.Start
		msg.TakeEnd = status.Take.End
	}

	if lastErr != nil {
		msg.LastError = lastErr.Error()
	}

	return msg
}

// handleControl processes TUI actions
func (l *Looper) handleControl() {
	for {
		select {
		case msg := <-l.ctrl.Presses:
			if msg.Reset {
				if err := l.loop.Reset(); err != nil {
					log.Printf("Reset failed: %v", err)
				}
				l.clearError()
			} else if err := l.loop.Press(); err != nil {
				log.Printf("Press failed: %v", err)
			}

		case msg := <-l.ctrl.Changes:
			l.loop.SetVolume(msg.Volume)
			l.loop.Mute(msg.Muted)

		case <-l.ctrl.Quit:
			l.cancel()
			return

		case <-l.ctx.Done():
			return
		}
	}
}

// handleStdin reads press commands when running without the TUI.
// Blank lines and "p" press the switch, "r" resets, "q" quits.
func (l *Looper) handleStdin() {
	log.Printf("Headless mode: Enter=press, r=reset, q=quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "", "p":
			if err := l.loop.Press(); err != nil {
				log.Printf("Press failed: %v", err)
			}
		case "r":
			if err := l.loop.Reset(); err != nil {
				log.Printf("Reset failed: %v", err)
			}
			l.clearError()
		case "q":
			l.cancel()
			return
		default:
			log.Printf("Unknown command: %q", scanner.Text())
		}

		select {
		case <-l.ctx.Done():
			return
		default:
		}
	}
}

// Stop stops the looper application
func (l *Looper) Stop() {
	l.cancel()

	if l.loop != nil {
		l.loop.Close()
	}

	if l.tuiProg != nil {
		l.tuiProg.Quit()
	}
}
