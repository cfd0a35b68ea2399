// ABOUTME: Audio encoder package for encoding PCM to wire formats
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides audio encoders for the robot to viewer stream.
//
// Supports: PCM (16-bit little-endian), Opus (fixed 20ms frames)
//
// Example:
//
//	encoder, err := encode.New(audio.CaptureFormat(audio.CodecOpus))
//	packet, err := encoder.Encode(frame)
package encode
