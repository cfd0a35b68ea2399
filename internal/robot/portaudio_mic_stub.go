//go:build !portaudio

// ABOUTME: PortAudio microphone stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package robot

import (
	"context"
	"fmt"

	"github.com/livecam/livecam-go/internal/capture"
)

// PortAudioMicrophone (stub)
type PortAudioMicrophone struct{}

// NewPortAudioMicrophone creates a stub microphone
func NewPortAudioMicrophone() *PortAudioMicrophone {
	return &PortAudioMicrophone{}
}

func (m *PortAudioMicrophone) Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

func (m *PortAudioMicrophone) Stop() error { return nil }

func (m *PortAudioMicrophone) Name() string { return "PortAudio (disabled)" }
