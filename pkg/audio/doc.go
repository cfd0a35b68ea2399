// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Batch types and 16-bit sample conversion functions
// Package audio provides the audio types shared by the robot agent and the viewer.
//
// Audio travels end to end as signed 16-bit mono PCM:
//   - Batch: one capture callback's samples plus a capture timestamp
//   - Format: codec, sample rate, channels and bit depth of a stream
//
// All serialized samples are little-endian.
//
// Example:
//
//	format := audio.CaptureFormat("pcm")
//	data := audio.SamplesToBytes(batch.Samples)
//	samples := audio.BytesToSamples(data)
package audio
