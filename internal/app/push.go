// ABOUTME: Capture lifecycle for the push playback model
// ABOUTME: Device batches go straight to the WorkerSink instead of the ring
package app

import (
	"context"
	"log"
	"sync"

	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/internal/playback"
	"github.com/livecam/livecam-go/pkg/audio"
)

type pushCapture struct {
	dev  capture.Device
	sink *playback.WorkerSink
	name string

	mu        sync.Mutex
	clientID  string
	capturing bool
}

func newPushCapture(dev capture.Device, sink *playback.WorkerSink, name string) *pushCapture {
	return &pushCapture{dev: dev, sink: sink, name: name}
}

// Start mirrors capture.Module: subscribe failures are logged, not returned
func (p *pushCapture) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capturing {
		return capture.ErrAlreadyCapturing
	}

	prefs := capture.Preferences{
		ClientID:   p.name,
		SampleRate: audio.InputSampleRate,
		Channels:   capture.ChannelMono,
	}
	id, err := p.dev.Subscribe(ctx, prefs, func(b audio.Batch) {
		p.sink.Write(b.Samples)
	})
	if err != nil {
		log.Printf("Failed to subscribe to microphone: %v", err)
		return nil
	}

	p.clientID = id
	p.capturing = true
	log.Printf("Push capture started (client %s)", id)
	return nil
}

func (p *pushCapture) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.capturing {
		return
	}
	if err := p.dev.Unsubscribe(ctx, p.clientID); err != nil {
		log.Printf("Failed to unsubscribe from microphone: %v", err)
	}
	p.capturing = false
	p.clientID = ""
	log.Printf("Push capture stopped")
}

func (p *pushCapture) IsCapturing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capturing
}
