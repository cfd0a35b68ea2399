// ABOUTME: Resample package doc
// ABOUTME: Integer-ratio conversion between capture and playback rates
// Package resample converts between sample rates that are integer multiples
// of each other.
//
// Upsampling repeats each sample (16 kHz to 48 kHz repeats every sample three
// times). Downsampling keeps every Nth sample. Neither direction filters, so
// aliasing is expected; live monitoring favours low latency over fidelity.
//
// Example:
//
//	dup, err := resample.NewDuplicator(16000, 48000)
//	out := dup.AppendLE(nil, []int16{100, -100}) // 12 bytes
package resample
