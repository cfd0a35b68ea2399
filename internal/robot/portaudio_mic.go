//go:build portaudio

// ABOUTME: PortAudio microphone
// ABOUTME: Blocking-read input stream polled one frame at a time
package robot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/pkg/audio"
)

// PortAudioMicrophone captures from the default PortAudio input
type PortAudioMicrophone struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPortAudioMicrophone creates an unopened PortAudio microphone
func NewPortAudioMicrophone() *PortAudioMicrophone {
	return &PortAudioMicrophone{}
}

func (m *PortAudioMicrophone) Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error {
	if m.cancel != nil {
		return fmt.Errorf("microphone already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buffer := make([]int16, audio.FrameSamples(sampleRate))
	stream, err := portaudio.OpenDefaultStream(audio.Mono, 0, float64(sampleRate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("stream creation error: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("stream start error: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer func() {
			stream.Stop()
			stream.Close()
			portaudio.Terminate()
			close(m.done)
		}()

		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				if errors.Is(err, portaudio.InputOverflowed) {
					log.Printf("Microphone overflow: %v", err)
					continue
				}
				log.Printf("Microphone read error: %v", err)
				return
			}
			samples := make([]int16, len(buffer))
			copy(samples, buffer)
			cb(audio.Batch{Samples: samples, Timestamp: time.Now().UnixMicro()})
		}
	}()

	log.Printf("Microphone started: %dHz mono (portaudio)", sampleRate)
	return nil
}

func (m *PortAudioMicrophone) Stop() error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	return nil
}

func (m *PortAudioMicrophone) Name() string {
	return "Default input (portaudio)"
}
