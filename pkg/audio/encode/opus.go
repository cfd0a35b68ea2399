// ABOUTME: Opus audio encoder
// ABOUTME: Encodes fixed 20ms frames of int16 samples to Opus packets
package encode

import (
	"fmt"
	"log"

	"github.com/livecam/livecam-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// Speech from a robot microphone; 24 kbps is plenty for 16 kHz mono
	opusBitrate = 24000

	maxOpusPacket = 4000
)

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if err := encoder.SetBitrate(opusBitrate * format.Channels); err != nil {
		log.Printf("Warning: Failed to set Opus bitrate: %v", err)
	}

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  audio.FrameSamples(format.SampleRate),
	}, nil
}

// FrameSize returns the samples per channel Encode expects
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode converts exactly one frame of samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int16) ([]byte, error) {
	if len(samples) != e.frameSize*e.channels {
		return nil, fmt.Errorf("opus encode error: got %d samples, want %d", len(samples), e.frameSize*e.channels)
	}

	data := make([]byte, maxOpusPacket)
	n, err := e.encoder.Encode(samples, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return data[:n], nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
