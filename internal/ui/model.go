// ABOUTME: Bubbletea model for the radio TUI
// ABOUTME: Renders session state, stream metadata and buffer diagnostics
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state.
type Model struct {
	// Session
	state      string
	streamURL  string
	station    string
	bitrate    int
	sampleRate int

	// Metadata
	title  string
	artist string

	// Playback
	volume     int
	bufferPct  int
	sinkPct    int
	retryCount int

	// Stats
	received  uint64
	forwarded uint64
	overflows uint64
	underruns uint64

	// Controls
	controls *Controls

	// Dimensions
	width  int
	height int
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
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

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderNowPlaying()
	s += m.renderControls()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

func (m Model) renderHeader() string {
	status := m.state
	if m.station != "" {
		status = fmt.Sprintf("%s — %s", m.state, m.station)
	}

	return fmt.Sprintf(`┌─ WaveCast Radio ─────────────────────────────────────┐
│ Status: %-45s │
│ Stream: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 45), truncate(m.streamURL, 45))
}

func (m Model) renderNowPlaying() string {
	s := "│ Now Playing:                                         │\n"
	if m.title != "" {
		s += fmt.Sprintf("│   Track:  %-42s │\n", truncate(m.title, 42))
		s += fmt.Sprintf("│   Artist: %-42s │\n", truncate(m.artist, 42))
	} else {
		s += "│   (No metadata)                                      │\n"
	}

	s += "│                                                      │\n"
	s += fmt.Sprintf("│ Format: %d kbps, %d Hz%-31s │\n", m.bitrate, m.sampleRate, "")

	return s
}

func (m Model) renderControls() string {
	volumeBar := renderBar(m.volume, 100, 10)
	bufferBar := renderBar(m.bufferPct, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %3d%%%-27s │\n"+
		"│ Buffer: [%s] %3d%% (sink %d%%)%-17s │\n",
		volumeBar, m.volume, "",
		bufferBar, m.bufferPct, m.sinkPct, "")
}

func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ RX: %d  TX: %d  Overflow: %d  Underrun: %d%-6s │
│                                                      │
`, m.received, m.forwarded, m.overflows, m.underruns, "")
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  space:Pause  r:Reconnect  q:Quit        │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.sendVolume()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.sendVolume()
	case " ", "space":
		if m.controls != nil {
			select {
			case m.controls.Transport <- TransportMsg{TogglePause: true}:
			default:
			}
		}
	case "r":
		if m.controls != nil {
			select {
			case m.controls.Transport <- TransportMsg{Reconnect: true}:
			default:
			}
		}
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.controls != nil {
		select {
		case m.controls.Volume <- VolumeMsg{Volume: m.volume}:
		default:
		}
	}
}

// applyStatus updates model from a status message.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.StreamURL != "" {
		m.streamURL = msg.StreamURL
	}
	if msg.Station != "" {
		m.station = msg.Station
	}
	if msg.Bitrate != 0 {
		m.bitrate = msg.Bitrate
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.artist = msg.Artist
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.BufferPct != nil {
		m.bufferPct = *msg.BufferPct
	}
	if msg.SinkPct != nil {
		m.sinkPct = *msg.SinkPct
	}
	if msg.Received != 0 {
		m.received = msg.Received
	}
	if msg.Forwarded != 0 {
		m.forwarded = msg.Forwarded
	}
	if msg.Overflows != nil {
		m.overflows = *msg.Overflows
	}
	if msg.Underruns != nil {
		m.underruns = *msg.Underruns
	}
	if msg.RetryCount != nil {
		m.retryCount = *msg.RetryCount
	}
}

// StatusMsg updates TUI state.
type StatusMsg struct {
	State      string
	StreamURL  string
	Station    string
	Bitrate    int
	SampleRate int
	Title      string
	Artist     string
	Volume     *int
	BufferPct  *int
	SinkPct    *int
	Received   uint64
	Forwarded  uint64
	Overflows  *uint64
	Underruns  *uint64
	RetryCount *int
}

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
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}
