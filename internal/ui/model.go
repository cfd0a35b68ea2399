// ABOUTME: Bubbletea model for the viewer TUI
// ABOUTME: Shows connection, capture and buffer state; keys drive capture and volume
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/livecam/livecam-go/internal/app"
	"github.com/livecam/livecam-go/internal/capture"
)

const (
	volumeStep    = 5
	toggleTimeout = 10 * time.Second
)

// Controller is the part of the viewer the keys act on
type Controller interface {
	ToggleCapture(ctx context.Context) error
	SetVolume(volume int)
	SetMuted(muted bool)
}

// StatusMsg carries a fresh viewer snapshot
type StatusMsg struct {
	Stats app.Stats
}

// captureResultMsg reports the outcome of a capture toggle
type captureResultMsg struct {
	err error
}

// Model represents the TUI state
type Model struct {
	ctrl Controller

	stats  app.Stats
	volume int
	muted  bool

	toggling  bool
	lastError string
	showDebug bool
	quitting  bool

	width  int
	height int
}

// NewModel creates a model; ctrl may be nil in tests
func NewModel(ctrl Controller) Model {
	return Model{
		ctrl:   ctrl,
		volume: 100,
	}
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
		m.stats = msg.Stats
	case captureResultMsg:
		m.toggling = false
		m.lastError = ""
		if msg.err != nil {
			m.lastError = msg.err.Error()
		}
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+volumeStep, 100)
		m.applyVolume()
	case "down":
		m.volume = max(m.volume-volumeStep, 0)
		m.applyVolume()
	case "m":
		m.muted = !m.muted
		m.applyVolume()
	case "d":
		m.showDebug = !m.showDebug
	case "c":
		if m.ctrl == nil || m.toggling {
			return m, nil
		}
		m.toggling = true
		return m, toggleCapture(m.ctrl)
	}

	return m, nil
}

func (m Model) applyVolume() {
	if m.ctrl == nil {
		return
	}
	m.ctrl.SetVolume(m.volume)
	m.ctrl.SetMuted(m.muted)
}

// toggleCapture runs off the update loop; subscribing waits on the robot
func toggleCapture(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), toggleTimeout)
		defer cancel()
		return captureResultMsg{err: ctrl.ToggleCapture(ctx)}
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Disconnecting...\n"
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Livecam Viewer"))
	b.WriteString("\n\n")

	s := m.stats
	conn := "Disconnected"
	if s.Connected {
		conn = "Connected to " + s.ServerName
	}
	row("Robot:", conn)
	row("Sync:", m.renderSync())

	state := capture.Idle.String()
	if s.Capturing {
		state = capture.Capturing.String()
	}
	if m.toggling {
		state += " (switching...)"
	}
	mode := "pull"
	if s.PushModel {
		mode = "push"
	}
	row("Capture:", fmt.Sprintf("%s, %s model", state, mode))

	if s.PushModel {
		w := s.Worker
		row("Worker:", fmt.Sprintf("%s writes, %s dropped, %s flushed",
			humanize.Comma(w.Writes), humanize.Comma(w.Dropped), humanize.IBytes(uint64(w.Flushed))))
	} else {
		row("Buffer:", fmt.Sprintf("%s / %s %s",
			humanize.IBytes(uint64(s.Buffer.Size)), humanize.IBytes(uint64(s.Buffer.Capacity)), renderBar(s.Buffer.Size, s.Buffer.Capacity, 20)))
		row("Overflow:", fmt.Sprintf("%s bytes dropped", humanize.Comma(s.Buffer.Dropped)))
		row("Playback:", fmt.Sprintf("%s reads, %s underruns",
			humanize.Comma(s.Pull.Reads), humanize.Comma(s.Pull.Underruns)))
	}

	row("Audio:", fmt.Sprintf("%s frames, %s lost, latency %s",
		humanize.Comma(s.Client.AudioChunks), humanize.Comma(s.Client.AudioLost), s.Client.Latency.Round(time.Millisecond)))
	if s.CameraWidth > 0 {
		row("Camera:", fmt.Sprintf("%dx%d, %s frames", s.CameraWidth, s.CameraHeight, humanize.Comma(s.Client.CameraFrames)))
	}
	if s.Recorded > 0 {
		row("Recorded:", s.Recorded.Round(time.Second).String())
	}

	muteText := ""
	if m.muted {
		muteText = " (muted)"
	}
	row("Volume:", fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteText))

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Error: " + m.lastError))
		b.WriteString("\n")
	}

	if m.showDebug {
		b.WriteString("\n")
		row("Offset:", fmt.Sprintf("%+dμs", s.Client.Offset))
		row("Source:", fmt.Sprintf("%s batches, %s samples, %s clamped",
			humanize.Comma(s.Source.Batches), humanize.Comma(s.Source.Samples), humanize.Comma(s.Source.Clamped)))
		row("Queue:", fmt.Sprintf("%s audio frames dropped by client", humanize.Comma(s.Client.AudioDropped)))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("c:Capture  ↑/↓:Volume  m:Mute  d:Debug  q:Quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSync() string {
	c := m.stats.Client
	if !m.stats.Connected {
		return "-"
	}
	return fmt.Sprintf("%s (rtt %.1fms)", c.SyncQuality, float64(c.RTT)/1000.0)
}

func renderBar(value, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(value*width/total, width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
