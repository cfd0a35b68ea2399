// ABOUTME: Tests for Opus decoder
// ABOUTME: Tests Opus decoder creation and an encode/decode round trip
package decode

import (
	"math"
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/encode"
)

func TestNewOpus(t *testing.T) {
	decoder, err := NewOpus(audio.CaptureFormat(audio.CodecOpus))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	decoder, err := NewOpus(audio.CaptureFormat(audio.CodecPCM))
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for Opus decoder: pcm"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestOpusRoundTrip(t *testing.T) {
	format := audio.CaptureFormat(audio.CodecOpus)

	enc, err := encode.NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()

	dec, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	defer dec.Close()

	frame := make([]int16, audio.FrameSamples(format.SampleRate))
	for i := range frame {
		frame[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	packet, err := enc.Encode(frame)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	samples, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(samples) != len(frame) {
		t.Errorf("decoded %d samples, want %d", len(samples), len(frame))
	}
}

func TestOpusDecode_Garbage(t *testing.T) {
	dec, err := NewOpus(audio.CaptureFormat(audio.CodecOpus))
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := dec.Decode(nil); err == nil {
		t.Error("expected error decoding empty packet")
	}
}
