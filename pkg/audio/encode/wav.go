// ABOUTME: WAV file recorder
// ABOUTME: Streams 16-bit PCM samples to disk through go-audio/wav
package encode

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the RIFF audio format tag for integer PCM
const wavFormatPCM = 1

// WAVRecorder appends samples to a WAV file until closed
type WAVRecorder struct {
	mu       sync.Mutex
	file     *os.File
	enc      *wav.Encoder
	format   *goaudio.Format
	buf      *goaudio.IntBuffer
	samples  int64
	channels int
	closed   bool
}

// NewWAVRecorder creates path (and its directory) for 16-bit recording
func NewWAVRecorder(path string, sampleRate, channels int) (*WAVRecorder, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid WAV format: %d Hz, %d channels", sampleRate, channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	format := &goaudio.Format{SampleRate: sampleRate, NumChannels: channels}
	return &WAVRecorder{
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, 16, channels, wavFormatPCM),
		format:   format,
		buf:      &goaudio.IntBuffer{Format: format, SourceBitDepth: 16},
		channels: channels,
	}, nil
}

// Write appends interleaved samples
func (r *WAVRecorder) Write(samples []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder closed")
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}

	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}
	r.samples += int64(len(samples))
	return nil
}

// Frames returns how many sample frames have been written
func (r *WAVRecorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples / int64(r.channels)
}

// Close finalizes the WAV header and closes the file
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	encErr := r.enc.Close()
	fileErr := r.file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize WAV: %w", encErr)
	}
	return fileErr
}
