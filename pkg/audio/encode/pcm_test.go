// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests PCM encoding of int16 samples
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid 16-bit mono",
			format: audio.CaptureFormat(audio.CodecPCM),
		},
		{
			name: "unsupported 24-bit",
			format: audio.Format{
				Codec:      audio.CodecPCM,
				SampleRate: 16000,
				Channels:   1,
				BitDepth:   24,
			},
			wantErr:     true,
			errContains: "unsupported bit depth",
		},
		{
			name:        "invalid codec",
			format:      audio.CaptureFormat(audio.CodecOpus),
			wantErr:     true,
			errContains: "invalid codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewPCM() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("NewPCM() unexpected error = %v", err)
			}
			if encoder == nil {
				t.Errorf("NewPCM() returned nil encoder")
			}
		})
	}
}

func TestPCMEncoder_Encode(t *testing.T) {
	encoder, err := NewPCM(audio.CaptureFormat(audio.CodecPCM))
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	samples := []int16{0, 32767, -32768, 0x1234, -0x5678}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(output) != len(samples)*2 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(samples)*2)
	}

	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if got != want {
			t.Errorf("Sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestNew_DispatchesByCodec(t *testing.T) {
	tests := []struct {
		codec   string
		wantErr bool
	}{
		{audio.CodecPCM, false},
		{audio.CodecOpus, false},
		{"flac", true},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			encoder, err := New(audio.CaptureFormat(tt.codec))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%s) error = %v, wantErr %v", tt.codec, err, tt.wantErr)
			}
			if encoder != nil {
				encoder.Close()
			}
		})
	}
}
