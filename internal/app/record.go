// ABOUTME: Capture device wrapper that records every batch to WAV
// ABOUTME: Sits between the remote microphone and the capture pipeline
package app

import (
	"context"
	"log"

	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/encode"
)

type recordingDevice struct {
	capture.Device
	rec *encode.WAVRecorder
}

func (d *recordingDevice) Subscribe(ctx context.Context, prefs capture.Preferences, cb capture.BatchFunc) (string, error) {
	return d.Device.Subscribe(ctx, prefs, func(b audio.Batch) {
		if err := d.rec.Write(b.Samples); err != nil {
			log.Printf("Recording write failed: %v", err)
		}
		cb(b)
	})
}
