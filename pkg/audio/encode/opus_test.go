// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests Opus encoding of fixed-size frames
package encode

import (
	"math"
	"strings"
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid Opus 16kHz mono",
			format: audio.CaptureFormat(audio.CodecOpus),
		},
		{
			name: "valid Opus 48kHz mono",
			format: audio.Format{
				Codec:      audio.CodecOpus,
				SampleRate: 48000,
				Channels:   1,
				BitDepth:   16,
			},
		},
		{
			name:        "invalid codec",
			format:      audio.CaptureFormat(audio.CodecPCM),
			wantErr:     true,
			errContains: "invalid codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder, err := NewOpus(audio.CaptureFormat(audio.CodecOpus))
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	frameSize := encoder.(*OpusEncoder).FrameSize()
	if frameSize != 320 {
		t.Fatalf("FrameSize() = %d, want 320", frameSize)
	}

	// 440Hz tone
	samples := make([]int16, frameSize)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	packet, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 {
		t.Error("Encode() returned empty packet")
	}
}

func TestOpusEncoder_RejectsPartialFrame(t *testing.T) {
	encoder, err := NewOpus(audio.CaptureFormat(audio.CodecOpus))
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	if _, err := encoder.Encode(make([]int16, 100)); err == nil {
		t.Error("Encode() expected error for partial frame")
	}
}
