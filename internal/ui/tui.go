// ABOUTME: TUI initialization and control channels
// ABOUTME: Wraps the bubbletea program for the radio UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeMsg carries a volume change from the TUI.
type VolumeMsg struct {
	Volume int
}

// TransportMsg carries playback control from the TUI.
type TransportMsg struct {
	TogglePause bool
	Reconnect   bool
}

// QuitMsg signals shutdown.
type QuitMsg struct{}

// Controls holds channels for TUI-to-session communication.
type Controls struct {
	Volume    chan VolumeMsg
	Transport chan TransportMsg
	Quit      chan QuitMsg
}

// NewControls creates the control channel set.
func NewControls() *Controls {
	return &Controls{
		Volume:    make(chan VolumeMsg, 10),
		Transport: make(chan TransportMsg, 10),
		Quit:      make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(controls *Controls) Model {
	return Model{
		volume:   75,
		state:    "stopped",
		controls: controls,
	}
}

// Run starts the TUI.
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
