// ABOUTME: Microphone sources for the robot agent
// ABOUTME: Test tone and looping file microphones delivering 16 kHz mono batches
package robot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/decode"
	"github.com/livecam/livecam-go/pkg/audio/resample"
)

// Microphone delivers mono int16 batches until stopped
type Microphone interface {
	// Start begins delivering batches at sampleRate to cb
	Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error

	// Stop halts delivery; no callbacks run after it returns
	Stop() error

	// Name describes the source for status displays
	Name() string
}

// Microphone kinds accepted by NewMicrophone
const (
	MicTone      = "tone"
	MicFile      = "file"
	MicMalgo     = "malgo"
	MicPortAudio = "portaudio"
)

// NewMicrophone builds a microphone by kind; file is used by MicFile
func NewMicrophone(kind, file string) (Microphone, error) {
	switch kind {
	case MicTone, "":
		return NewToneMicrophone(440), nil
	case MicFile:
		if file == "" {
			return nil, fmt.Errorf("file microphone needs an audio file")
		}
		return NewFileMicrophone(file), nil
	case MicMalgo:
		return NewMalgoMicrophone(), nil
	case MicPortAudio:
		return NewPortAudioMicrophone(), nil
	default:
		return nil, fmt.Errorf("unknown microphone: %s", kind)
	}
}

// ticker runs produce every frame interval on its own goroutine
type ticker struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *ticker) start(ctx context.Context, interval time.Duration, produce func(now time.Time)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return fmt.Errorf("microphone already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		tick := time.NewTicker(interval)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				produce(now)
			}
		}
	}(t.done)

	return nil
}

func (t *ticker) stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ToneMicrophone generates a sine wave
type ToneMicrophone struct {
	ticker
	frequency   float64
	sampleIndex uint64
}

// NewToneMicrophone creates a tone generator at frequency Hz
func NewToneMicrophone(frequency float64) *ToneMicrophone {
	return &ToneMicrophone{frequency: frequency}
}

func (m *ToneMicrophone) Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error {
	frame := audio.FrameSamples(sampleRate)
	return m.start(ctx, audio.FrameDurationMs*time.Millisecond, func(now time.Time) {
		cb(audio.Batch{
			Samples:   m.generate(frame, sampleRate),
			Timestamp: now.UnixMicro(),
		})
	})
}

// generate returns the next n samples at 50% volume
func (m *ToneMicrophone) generate(n, sampleRate int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		t := float64(m.sampleIndex+uint64(i)) / float64(sampleRate)
		samples[i] = int16(math.Sin(2*math.Pi*m.frequency*t) * 32767.0 * 0.5)
	}
	m.sampleIndex += uint64(n)
	return samples
}

func (m *ToneMicrophone) Stop() error {
	m.stop()
	return nil
}

func (m *ToneMicrophone) Name() string {
	return fmt.Sprintf("Test Tone (%gHz)", m.frequency)
}

// FileMicrophone loops an MP3 or FLAC file as if it were live audio
type FileMicrophone struct {
	ticker
	path string

	reader decode.FileReader
	dec    *resample.Decimator
	buf    []int16
}

// NewFileMicrophone creates a microphone reading path
func NewFileMicrophone(path string) *FileMicrophone {
	return &FileMicrophone{path: path}
}

func (m *FileMicrophone) Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error {
	reader, err := decode.OpenFile(m.path)
	if err != nil {
		return err
	}

	dec, err := resample.NewDecimator(reader.SampleRate(), sampleRate)
	if err != nil {
		reader.Close()
		return fmt.Errorf("file rate %d Hz: %w", reader.SampleRate(), err)
	}

	m.reader = reader
	m.dec = dec
	m.buf = make([]int16, audio.FrameSamples(reader.SampleRate()))

	err = m.start(ctx, audio.FrameDurationMs*time.Millisecond, func(now time.Time) {
		n, err := m.reader.Read(m.buf)
		if err != nil || n == 0 {
			return
		}
		cb(audio.Batch{
			Samples:   m.dec.Decimate(nil, m.buf[:n]),
			Timestamp: now.UnixMicro(),
		})
	})
	if err != nil {
		reader.Close()
	}
	return err
}

func (m *FileMicrophone) Stop() error {
	m.stop()
	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}

func (m *FileMicrophone) Name() string {
	return "File: " + m.path
}
