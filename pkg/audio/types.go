// ABOUTME: Audio type definitions
// ABOUTME: Defines formats, sample batches and little-endian sample helpers
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// InputSampleRate is the rate the robot microphone delivers (16 kHz mono)
	InputSampleRate = 16000

	// OutputSampleRate is the rate the viewer plays back at
	OutputSampleRate = 48000

	// BytesPerSample for signed 16-bit PCM
	BytesPerSample = 2

	// Mono is the only channel layout carried end to end
	Mono = 1

	// FrameDurationMs is the wire frame length; Opus requires fixed frames
	FrameDurationMs = 20
)

// Codec names used on the wire
const (
	CodecPCM  = "pcm"
	CodecOpus = "opus"
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// CaptureFormat is the format the robot microphone is subscribed with
func CaptureFormat(codec string) Format {
	return Format{
		Codec:      codec,
		SampleRate: InputSampleRate,
		Channels:   Mono,
		BitDepth:   16,
	}
}

// FrameSamples returns the samples in one wire frame at the given rate
func FrameSamples(sampleRate int) int {
	return sampleRate * FrameDurationMs / 1000
}

// Batch is one capture callback's worth of mono samples
type Batch struct {
	Samples   []int16
	Timestamp int64 // Capture time, microseconds on the robot clock (0 if unknown)
}

// Len returns the number of samples in the batch
func (b Batch) Len() int {
	return len(b.Samples)
}

// Duration returns the playback duration of n samples at the given rate
func Duration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// BytesInDuration returns the byte size of d worth of 16-bit audio
func BytesInDuration(d time.Duration, sampleRate, channels int) int {
	samples := int(int64(sampleRate) * int64(d) / int64(time.Second))
	return samples * channels * BytesPerSample
}

// PutInt16LE writes one sample as little-endian (low byte, high byte)
func PutInt16LE(dst []byte, sample int16) {
	binary.LittleEndian.PutUint16(dst, uint16(sample))
}

// Int16FromLE reads one little-endian sample
func Int16FromLE(src []byte) int16 {
	return int16(binary.LittleEndian.Uint16(src))
}

// SamplesToBytes serializes samples as little-endian 16-bit PCM
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		PutInt16LE(out[i*BytesPerSample:], s)
	}
	return out
}

// BytesToSamples parses little-endian 16-bit PCM; a trailing odd byte is ignored
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = Int16FromLE(data[i*BytesPerSample:])
	}
	return samples
}

// Scale applies a volume multiplier with int16 clipping
func Scale(sample int16, multiplier float64) int16 {
	v := float64(sample) * multiplier
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
