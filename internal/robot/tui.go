// ABOUTME: Robot TUI for displaying connected viewers and stats
// ABOUTME: Real-time robot status display using bubbletea
package robot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// RobotTUI manages the robot TUI
type RobotTUI struct {
	name     string
	port     int
	program  *tea.Program
	updates  chan RobotStatus
	quitChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// RobotStatus holds robot state for the TUI
type RobotStatus struct {
	Microphone string
	MicRunning bool
	FramesSent int64
	Dropped    int64
	Clients    []ClientInfo
	Host       HostStats
}

// ClientInfo holds viewer information for display
type ClientInfo struct {
	Name   string
	ID     string
	Codec  string // empty when not subscribed to audio
	Camera bool
}

type tuiModel struct {
	name      string
	port      int
	status    RobotStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg RobotStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = RobotStatus(msg)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down robot...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	clientHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("Livecam Robot"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(headerStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	row("Robot: ", m.name)
	row("Port: ", fmt.Sprintf("%d", m.port))
	row("Uptime: ", time.Since(m.startTime).Round(time.Second).String())

	micState := "idle"
	if m.status.MicRunning {
		micState = "capturing"
	}
	row("Microphone: ", fmt.Sprintf("%s (%s)", m.status.Microphone, micState))
	row("Frames: ", fmt.Sprintf("%s sent, %s dropped",
		humanize.Comma(m.status.FramesSent), humanize.Comma(m.status.Dropped)))

	h := m.status.Host
	row("Host: ", fmt.Sprintf("cpu %.1f%%, mem %.1f%%, rss %s", h.CPUPercent, h.RAMPercent, humanize.IBytes(h.ProcessRSS)))
	row("Network: ", fmt.Sprintf("%s/s out, %s/s in", humanize.Bytes(h.NetSent), humanize.Bytes(h.NetRecv)))
	b.WriteString("\n")

	b.WriteString(clientHeaderStyle.Render(fmt.Sprintf("Connected Viewers (%d)", len(m.status.Clients))))
	b.WriteString("\n\n")

	if len(m.status.Clients) == 0 {
		b.WriteString(valueStyle.Render("  No viewers connected"))
		b.WriteString("\n")
	} else {
		for _, client := range m.status.Clients {
			audioState := "no audio"
			if client.Codec != "" {
				audioState = client.Codec
			}
			camState := ""
			if client.Camera {
				camState = ", camera"
			}
			b.WriteString(fmt.Sprintf("  • %s", client.Name))
			b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s%s)", audioState, camState)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// NewRobotTUI creates a new robot TUI
func NewRobotTUI(name string, port int) *RobotTUI {
	return &RobotTUI{
		name:     name,
		port:     port,
		updates:  make(chan RobotStatus, 10),
		quitChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start runs the TUI until Stop or a quit key
func (t *RobotTUI) Start() error {
	m := tuiModel{
		name:      t.name,
		port:      t.port,
		status:    RobotStatus{Microphone: "initializing..."},
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for {
			select {
			case <-t.done:
				return
			case status := <-t.updates:
				t.program.Send(statusMsg(status))
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *RobotTUI) Update(status RobotStatus) {
	select {
	case t.updates <- status:
	default:
	}
}

// Stop stops the TUI
func (t *RobotTUI) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
		if t.program != nil {
			t.program.Quit()
		}
	})
}

// QuitChan returns the channel that signals when user wants to quit
func (t *RobotTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
