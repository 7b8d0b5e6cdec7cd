// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and control channel wiring
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stomploop/stomploop-go/pkg/looper"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Control is optional for testing

	if model.phase != looper.PhaseIdle {
		t.Errorf("expected initial phase idle, got %v", model.phase)
	}

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}

	if model.muted {
		t.Error("expected muted to be false initially")
	}

	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
}

func TestStatusMsgPhase(t *testing.T) {
	model := NewModel(nil)

	phase := looper.PhaseAwaitingStop
	model.applyStatus(StatusMsg{
		Phase:  &phase,
		StopAt: 1300 * time.Millisecond,
	})

	if model.phase != looper.PhaseAwaitingStop {
		t.Errorf("expected phase awaitingStop, got %v", model.phase)
	}

	if model.stopAt != 1300*time.Millisecond {
		t.Errorf("expected stopAt 1.3s, got %v", model.stopAt)
	}
}

func TestStatusMsgIdleClearsTake(t *testing.T) {
	model := NewModel(nil)

	recording := looper.PhaseRecording
	model.applyStatus(StatusMsg{
		Phase:     &recording,
		TakeID:    "3f8a2c1e",
		TakeStart: time.Second,
	})

	if model.takeID != "3f8a2c1e" {
		t.Fatalf("expected takeID to be set, got %q", model.takeID)
	}

	idle := looper.PhaseIdle
	model.applyStatus(StatusMsg{Phase: &idle})

	if model.takeID != "" {
		t.Errorf("expected take cleared on idle, got %q", model.takeID)
	}
	if model.takeStart != 0 {
		t.Errorf("expected takeStart cleared, got %v", model.takeStart)
	}
}

func TestStatusMsgTakeInfo(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		TakeID:    "deadbeef",
		TakeStart: time.Second,
		TakeEnd:   3 * time.Second,
	})

	if model.takeID != "deadbeef" {
		t.Errorf("expected takeID 'deadbeef', got %q", model.takeID)
	}

	if model.takeStart != time.Second {
		t.Errorf("expected takeStart 1s, got %v", model.takeStart)
	}

	if model.takeEnd != 3*time.Second {
		t.Errorf("expected takeEnd 3s, got %v", model.takeEnd)
	}
}

func TestStatusMsgStreamInfo(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Input:      "malgo",
		SampleRate: 48000,
		Channels:   1,
	})

	if model.input != "malgo" {
		t.Errorf("expected input 'malgo', got %q", model.input)
	}

	if model.sampleRate != 48000 {
		t.Errorf("expected sampleRate 48000, got %d", model.sampleRate)
	}

	if model.channels != 1 {
		t.Errorf("expected channels 1, got %d", model.channels)
	}
}

func TestStatusMsgFault(t *testing.T) {
	model := NewModel(nil)

	faulted := true
	model.applyStatus(StatusMsg{
		Faulted:   &faulted,
		LastError: "chunk starts past the boundary",
	})

	if !model.faulted {
		t.Error("expected faulted to be true")
	}

	if model.lastError == "" {
		t.Error("expected lastError to be set")
	}

	cleared := false
	model.applyStatus(StatusMsg{Faulted: &cleared})

	if model.faulted {
		t.Error("expected faulted cleared")
	}
}

func TestStatusMsgVolume(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{Volume: 75})

	if model.volume != 75 {
		t.Errorf("expected volume 75, got %d", model.volume)
	}

	// Zero volume is ignored so partial updates keep the current value
	model.applyStatus(StatusMsg{Volume: 0})

	if model.volume != 75 {
		t.Errorf("expected volume retained at 75, got %d", model.volume)
	}
}

func TestStatusMsgCounters(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Chunks:    1000,
		Frames:    960000,
		Underruns: 5,
	})

	if model.chunks != 1000 {
		t.Errorf("expected chunks 1000, got %d", model.chunks)
	}

	if model.frames != 960000 {
		t.Errorf("expected frames 960000, got %d", model.frames)
	}

	if model.underruns != 5 {
		t.Errorf("expected underruns 5, got %d", model.underruns)
	}

	// Counters are full snapshots, zero is applied
	model.applyStatus(StatusMsg{})

	if model.chunks != 0 {
		t.Errorf("expected chunks reset to 0, got %d", model.chunks)
	}
}

func TestKeyPressSendsControl(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	model.handleKey(tea.KeyMsg{Type: tea.KeySpace})

	select {
	case msg := <-ctrl.Presses:
		if msg.Reset {
			t.Error("space must send a press, not a reset")
		}
	default:
		t.Fatal("expected a press message")
	}

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})

	select {
	case msg := <-ctrl.Presses:
		if !msg.Reset {
			t.Error("r must send a reset")
		}
	default:
		t.Fatal("expected a reset message")
	}
}

func TestKeyVolumeControl(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	next, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyDown})
	m := next.(Model)

	if m.volume != 95 {
		t.Errorf("expected volume 95 after down, got %d", m.volume)
	}

	select {
	case msg := <-ctrl.Changes:
		if msg.Volume != 95 {
			t.Errorf("expected change message volume 95, got %d", msg.Volume)
		}
	default:
		t.Fatal("expected a volume change message")
	}

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = next.(Model)

	if !m.muted {
		t.Error("expected muted after m")
	}

	select {
	case msg := <-ctrl.Changes:
		if !msg.Muted {
			t.Error("expected change message muted")
		}
	default:
		t.Fatal("expected a mute change message")
	}
}

func TestKeyQuit(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	if cmd == nil {
		t.Error("expected quit command")
	}

	select {
	case <-ctrl.Quit:
	default:
		t.Fatal("expected a quit message")
	}
}

func TestViewRenders(t *testing.T) {
	model := NewModel(nil)

	// Before the first WindowSizeMsg the view is a placeholder
	if got := model.View(); got != "Loading..." {
		t.Errorf("expected loading placeholder, got %q", got)
	}

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)

	phase := looper.PhaseLooping
	model.applyStatus(StatusMsg{
		Phase:      &phase,
		TakeID:     "3f8a2c1e",
		TakeStart:  time.Second,
		TakeEnd:    3 * time.Second,
		Input:      "malgo",
		SampleRate: 48000,
		Channels:   1,
	})

	view := model.View()
	if !strings.Contains(view, "looping") {
		t.Error("expected view to show the looping state")
	}
	if !strings.Contains(view, "3f8a2c1e") {
		t.Error("expected view to show the take id")
	}
	if !strings.Contains(view, "48000Hz Mono") {
		t.Error("expected view to show the stream format")
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "Stereo"},
	}

	for _, tt := range tests {
		result := channelName(tt.channels)
		if result != tt.expected {
			t.Errorf("channelName(%d) = %q, expected %q",
				tt.channels, result, tt.expected)
		}
	}
}
