// ABOUTME: TUI update helpers for the robot
// ABOUTME: Periodically snapshots robot state and pushes it to the TUI
package robot

import (
	"sort"
	"time"
)

// tuiLoop refreshes the TUI once a second until the server stops
func (s *Server) tuiLoop() {
	sampler := newHostSampler()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.updateTUI(sampler.Sample())
		}
	}
}

// updateTUI sends current robot state to the TUI
func (s *Server) updateTUI(host HostStats) {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status(host))
}

func (s *Server) status(host HostStats) RobotStatus {
	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		client.mu.RLock()
		clients = append(clients, ClientInfo{
			Name:   client.Name,
			ID:     client.ID,
			Codec:  client.audioCodec,
			Camera: client.cameraCancel != nil,
		})
		client.mu.RUnlock()
	}
	s.clientsMu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

	stats := s.Stats()
	return RobotStatus{
		Microphone: s.config.Microphone.Name(),
		MicRunning: stats.MicRunning,
		FramesSent: stats.FramesSent,
		Dropped:    stats.Dropped,
		Clients:    clients,
		Host:       host,
	}
}
