// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides pull-driven Output backends and a push-model Pipe writer
// Package output provides audio playback backends.
//
// Backends pull 16-bit PCM from a Source at the device's cadence. Short
// reads are padded with silence here, never in the Source.
//
// Example:
//
//	out, err := output.New(output.BackendOto)
//	err = out.Open(48000, 1, sink)
package output
