// ABOUTME: Tests for RTP packetization
// ABOUTME: Verifies round trip and loss counting
package protocol

import (
	"bytes"
	"testing"

	"github.com/pion/rtp"
)

func TestPayloadType(t *testing.T) {
	tests := []struct {
		codec   string
		want    uint8
		wantErr bool
	}{
		{"opus", PayloadTypeOpus, false},
		{"pcm", PayloadTypePCM, false},
		{"flac", 0, true},
	}

	for _, tt := range tests {
		got, err := PayloadType(tt.codec)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("PayloadType(%s) = %d, %v", tt.codec, got, err)
		}
	}
}

func TestPacketizeRoundTrip(t *testing.T) {
	p := NewPacketizer(PayloadTypePCM, 16000)
	var d Depacketizer

	frame := bytes.Repeat([]byte{1, 2}, 320)
	data, err := p.Packetize(frame, 320)
	if err != nil {
		t.Fatalf("Packetize() error: %v", err)
	}

	payload, pt, err := d.Unpack(data)
	if err != nil {
		t.Fatalf("Unpack() error: %v", err)
	}
	if pt != PayloadTypePCM {
		t.Errorf("payload type = %d, want %d", pt, PayloadTypePCM)
	}
	if !bytes.Equal(payload, frame) {
		t.Error("payload does not match frame")
	}
}

func TestDepacketizerCountsGaps(t *testing.T) {
	var d Depacketizer

	for _, seq := range []uint16{10, 11, 14, 15, 15} {
		pkt := rtp.Packet{
			Header:  rtp.Header{Version: 2, SequenceNumber: seq, SSRC: 7, PayloadType: PayloadTypeOpus},
			Payload: []byte{0xfc},
		}
		data, err := pkt.Marshal()
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		if _, _, err := d.Unpack(data); err != nil {
			t.Fatalf("Unpack() error: %v", err)
		}
	}

	if got := d.Lost(); got != 2 {
		t.Errorf("Lost() = %d, want 2", got)
	}
}

func TestDepacketizerRejectsGarbage(t *testing.T) {
	var d Depacketizer
	if _, _, err := d.Unpack([]byte{1, 2, 3}); err == nil {
		t.Error("expected error")
	}
}
