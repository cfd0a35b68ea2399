// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests decoding little-endian 16-bit PCM
package decode

import (
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		wantErr bool
	}{
		{"16-bit mono", audio.CaptureFormat(audio.CodecPCM), false},
		{"wrong codec", audio.CaptureFormat(audio.CodecOpus), true},
		{"24-bit", audio.Format{Codec: audio.CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: 24}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewPCM(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPCM() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && decoder == nil {
				t.Fatal("expected decoder to be created")
			}
		})
	}
}

func TestPCMDecode(t *testing.T) {
	decoder, err := NewPCM(audio.CaptureFormat(audio.CodecPCM))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	defer decoder.Close()

	tests := []struct {
		name  string
		input []byte
		want  []int16
	}{
		{"empty", []byte{}, []int16{}},
		{"single sample", []byte{0x64, 0x00}, []int16{100}},
		{"negative", []byte{0x9c, 0xff}, []int16{-100}},
		{"extremes", []byte{0xff, 0x7f, 0x00, 0x80}, []int16{32767, -32768}},
		{"odd trailing byte", []byte{0x01, 0x00, 0x05}, []int16{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Decode() returned %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}
