// ABOUTME: Binary frame layout for audio chunks and camera frames
// ABOUTME: [type:1][timestamp_us:8 BE][payload]
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Binary frame types
const (
	BinaryAudio  byte = 1
	BinaryCamera byte = 2
)

// HeaderSize is the fixed prefix of every binary frame
const HeaderSize = 9

// BinaryFrame is a decoded binary message
type BinaryFrame struct {
	Type      byte
	Timestamp int64 // Microseconds, robot clock
	Payload   []byte
}

// EncodeBinary builds a binary frame
func EncodeBinary(msgType byte, timestamp int64, payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))
	frame[0] = msgType
	binary.BigEndian.PutUint64(frame[1:9], uint64(timestamp))
	copy(frame[HeaderSize:], payload)
	return frame
}

// DecodeBinary splits a binary frame; Payload aliases data
func DecodeBinary(data []byte) (BinaryFrame, error) {
	if len(data) < HeaderSize {
		return BinaryFrame{}, fmt.Errorf("binary message too short: %d bytes", len(data))
	}
	return BinaryFrame{
		Type:      data[0],
		Timestamp: int64(binary.BigEndian.Uint64(data[1:9])),
		Payload:   data[HeaderSize:],
	}, nil
}

// CameraFrame is an RGB888 image
type CameraFrame struct {
	Width  int
	Height int
	Pixels []byte
}

// EncodeCamera lays out [width:2 BE][height:2 BE][RGB888...]
func EncodeCamera(f CameraFrame) []byte {
	out := make([]byte, 4+len(f.Pixels))
	binary.BigEndian.PutUint16(out[0:2], uint16(f.Width))
	binary.BigEndian.PutUint16(out[2:4], uint16(f.Height))
	copy(out[4:], f.Pixels)
	return out
}

// DecodeCamera parses a camera payload and checks the pixel count
func DecodeCamera(payload []byte) (CameraFrame, error) {
	if len(payload) < 4 {
		return CameraFrame{}, fmt.Errorf("camera frame too short: %d bytes", len(payload))
	}
	f := CameraFrame{
		Width:  int(binary.BigEndian.Uint16(payload[0:2])),
		Height: int(binary.BigEndian.Uint16(payload[2:4])),
		Pixels: payload[4:],
	}
	if want := f.Width * f.Height * 3; len(f.Pixels) != want {
		return CameraFrame{}, fmt.Errorf("camera frame %dx%d has %d pixel bytes, want %d", f.Width, f.Height, len(f.Pixels), want)
	}
	return f, nil
}
