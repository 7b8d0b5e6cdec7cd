// ABOUTME: Bubbletea model for looper TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stomploop/stomploop-go/pkg/looper"
)

// Model represents the TUI state
type Model struct {
	// Engine
	phase  looper.Phase
	stopAt time.Duration

	// Take
	takeID    string
	takeStart time.Duration
	takeEnd   time.Duration

	// Stream
	input      string
	sampleRate int
	channels   int

	// Playback
	volume int
	muted  bool

	// Stats
	chunks    uint64
	frames    uint64
	underruns int64

	// Fault
	faulted   bool
	lastError string

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	ctrl *Control
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTake()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders engine state and stream info
func (m Model) renderHeader() string {
	state := m.stateText()
	stream := fmt.Sprintf("%s %dHz %s", m.input, m.sampleRate, channelName(m.channels))
	if m.input == "" {
		stream = "(not started)"
	}

	return fmt.Sprintf(`┌─ Stomploop ──────────────────────────────────────────┐
│ State:  %-45s │
│ Input:  %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(state, 45), truncate(stream, 45))
}

// stateText describes the engine phase for the header
func (m Model) stateText() string {
	if m.faulted {
		return "FAULTED - press r to reset"
	}
	switch m.phase {
	case looper.PhaseRecording:
		return "● recording - press space to set the loop"
	case looper.PhaseAwaitingStop:
		return fmt.Sprintf("● recording - loop ends at %v", m.stopAt)
	case looper.PhaseLooping:
		return "▶ looping"
	default:
		return "idle - press space to record"
	}
}

// renderTake renders the current take
func (m Model) renderTake() string {
	if m.takeID == "" {
		return "│ Take:   (none)                                       │\n"
	}

	var info string
	if m.takeEnd > m.takeStart {
		info = fmt.Sprintf("%s  %v long, from %v", m.takeID, m.takeEnd-m.takeStart, m.takeStart)
	} else {
		info = fmt.Sprintf("%s  started at %v", m.takeID, m.takeStart)
	}

	return fmt.Sprintf("│ Take:   %-45s │\n", truncate(info, 45))
}

// renderControls renders volume status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-26s │\n",
		volumeBar, m.volume, muteIcon, "")
}

// renderStats renders capture and playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Chunks: %-10d Frames: %-12d Drops: %-4d │
`, m.chunks, m.frames, m.underruns)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ Space:Loop  r:Reset  ↑/↓:Volume  m:Mute  q:Quit      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Phase:    %-40v │
│   Stop at:  %-40v │
│   Error:    %-40s │
`, m.phase, m.stopAt, truncate(m.lastError, 40))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sendQuit()
		return m, tea.Quit
	case " ", "enter":
		m.sendPress(false)
	case "r":
		m.sendPress(true)
	case "up", "+":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
		}
		m.sendVolume()
	case "down", "-":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
		}
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message. Counter fields are
// always applied, so senders should include full snapshots.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Phase != nil {
		m.phase = *msg.Phase
		m.stopAt = msg.StopAt
		if m.phase == looper.PhaseIdle {
			m.takeID, m.takeStart, m.takeEnd = "", 0, 0
		}
	}
	if msg.TakeID != "" {
		m.takeID = msg.TakeID
		m.takeStart = msg.TakeStart
		m.takeEnd = msg.TakeEnd
	}
	if msg.Faulted != nil {
		m.faulted = *msg.Faulted
	}
	if msg.LastError != "" {
		m.lastError = msg.LastError
	}
	if msg.Input != "" {
		m.input = msg.Input
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	m.chunks = msg.Chunks
	m.frames = msg.Frames
	m.underruns = msg.Underruns
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Phase      *looper.Phase
	StopAt     time.Duration
	TakeID     string
	TakeStart  time.Duration
	TakeEnd    time.Duration
	Faulted    *bool
	LastError  string
	Input      string
	SampleRate int
	Channels   int
	Volume     int
	Chunks     uint64
	Frames     uint64
	Underruns  int64
}

// sendPress emits a press or reset action without blocking the UI loop
func (m Model) sendPress(reset bool) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Presses <- PressMsg{Reset: reset}:
	default:
	}
}

// sendVolume emits the current volume and mute state
func (m Model) sendVolume() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// sendQuit signals the application to shut down
func (m Model) sendQuit() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Quit <- QuitMsg{}:
	default:
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
