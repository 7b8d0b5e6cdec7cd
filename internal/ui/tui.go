// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for looper UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// PressMsg asks the application to handle a footswitch press. Reset
// asks for a full reset instead.
type PressMsg struct {
	Reset bool
}

// VolumeChangeMsg carries a volume or mute change from the TUI
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg asks the application to shut down
type QuitMsg struct{}

// Control holds channels for looper control communication
type Control struct {
	Presses chan PressMsg
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Presses: make(chan PressMsg, 10),
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume: 100,
		ctrl:   ctrl,
	}
}

// Run starts the TUI
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
