// ABOUTME: Tests for livecam protocol messages
// ABOUTME: Verifies envelope parsing and binary frame layout
package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	msg := Message{
		Type: TypeAudioSubscribe,
		Payload: AudioSubscribe{
			ClientID:   "viewer-1",
			SampleRate: 16000,
			Channels:   1,
			Codec:      "opus",
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	env, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error: %v", err)
	}
	if env.Type != TypeAudioSubscribe {
		t.Errorf("expected type %s, got %s", TypeAudioSubscribe, env.Type)
	}

	var sub AudioSubscribe
	if err := env.Decode(&sub); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if sub.ClientID != "viewer-1" || sub.SampleRate != 16000 || sub.Interleaved {
		t.Errorf("unexpected payload %+v", sub)
	}
}

func TestParseEnvelope_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"missing type", `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvelope([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnvelopeDecode_EmptyPayload(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"audio/subscribe"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope() error: %v", err)
	}
	var sub AudioSubscribe
	if err := env.Decode(&sub); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestSubscribeWireNames(t *testing.T) {
	data, err := json.Marshal(AudioSubscribe{ClientID: "c", SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	for _, key := range []string{"client_id", "sample_rate", "channels", "interleaved"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %s in %s", key, data)
		}
	}
}

func TestBinaryFrame(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	frame := EncodeBinary(BinaryAudio, 1234567890, payload)

	want := []byte{1, 0, 0, 0, 0, 0x49, 0x96, 0x02, 0xd2, 0xde, 0xad, 0xbe, 0xef}
	if !bytes.Equal(frame, want) {
		t.Fatalf("EncodeBinary() = %x, want %x", frame, want)
	}

	got, err := DecodeBinary(frame)
	if err != nil {
		t.Fatalf("DecodeBinary() error: %v", err)
	}
	if got.Type != BinaryAudio || got.Timestamp != 1234567890 || !bytes.Equal(got.Payload, payload) {
		t.Errorf("DecodeBinary() = %+v", got)
	}
}

func TestDecodeBinary_TooShort(t *testing.T) {
	if _, err := DecodeBinary([]byte{1, 2, 3}); err == nil {
		t.Error("expected error")
	}
}

func TestCameraFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{"1x1", []byte{0, 1, 0, 1, 10, 20, 30}, false},
		{"2x1", []byte{0, 2, 0, 1, 1, 2, 3, 4, 5, 6}, false},
		{"short header", []byte{0, 1}, true},
		{"missing pixels", []byte{0, 2, 0, 2, 1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeCamera(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeCamera() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !bytes.Equal(EncodeCamera(f), tt.payload) {
				t.Errorf("EncodeCamera() does not reproduce %v", tt.payload)
			}
		})
	}
}
