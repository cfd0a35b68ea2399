// ABOUTME: Per-client camera streaming
// ABOUTME: Sends camera frames as binary messages at the subscribed rate
package robot

import (
	"context"
	"log"
	"time"

	"github.com/livecam/livecam-go/internal/protocol"
)

func (s *Server) handleCameraSubscribe(client *Client, env protocol.Envelope) {
	if s.config.Camera == nil {
		s.sendError(client, env.Type, "no camera on this robot")
		return
	}

	var req protocol.CameraSubscribe
	if err := env.Decode(&req); err != nil {
		s.sendError(client, env.Type, err.Error())
		return
	}
	fps := req.FPS
	if fps <= 0 {
		fps = defaultCameraFPS
	}
	if fps > maxCameraFPS {
		fps = maxCameraFPS
	}

	s.stopCamera(client)

	ctx, cancel := context.WithCancel(context.Background())
	client.mu.Lock()
	client.cameraCancel = cancel
	client.mu.Unlock()

	log.Printf("Camera: %s subscribed at %d fps", client.Name, fps)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.streamCamera(ctx, client, fps)
	}()
}

func (s *Server) stopCamera(client *Client) {
	client.mu.Lock()
	cancel := client.cameraCancel
	client.cameraCancel = nil
	client.mu.Unlock()

	if cancel != nil {
		cancel()
		log.Printf("Camera: %s unsubscribed", client.Name)
	}
}

func (s *Server) streamCamera(ctx context.Context, client *Client, fps int) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-ticker.C:
			frame, err := s.config.Camera.Frame()
			if err != nil {
				log.Printf("Camera frame error: %v", err)
				continue
			}
			msg := protocol.EncodeBinary(protocol.BinaryCamera, s.getClockMicros(), protocol.EncodeCamera(frame))
			if err := s.sendBinary(client, msg); err != nil && s.config.Debug {
				log.Printf("[DEBUG] Dropping camera frame for %s: %v", client.Name, err)
			}
		}
	}
}
