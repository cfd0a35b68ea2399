// ABOUTME: TUI initialization and status feed
// ABOUTME: Wraps the bubbletea program and pushes viewer snapshots to it
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/livecam/livecam-go/internal/app"
)

// StatsSource is polled for status updates
type StatsSource interface {
	Stats() app.Stats
}

// Run creates the TUI program; the caller runs it
func Run(ctrl Controller) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}

// Feed sends a snapshot every interval until ctx ends
func Feed(ctx context.Context, p *tea.Program, src StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Send(StatusMsg{Stats: src.Stats()})
		}
	}
}
