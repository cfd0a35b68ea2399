// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-driven playback backends
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/livecam/livecam-go/pkg/audio"
)

// Source supplies little-endian 16-bit PCM on demand. ReadInto never
// blocks and may return fewer bytes than requested.
type Source interface {
	ReadInto(p []byte) int
}

// Output represents an audio output device that pulls from a Source
type Output interface {
	// Open initializes the device and starts pulling from src
	Open(sampleRate, channels int, src Source) error

	// Close releases output resources
	Close() error

	// SetVolume sets the volume (0-100)
	SetVolume(volume int)

	// SetMuted sets mute state
	SetMuted(muted bool)
}

// Backend names accepted by New
const (
	BackendOto       = "oto"
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
)

// New creates an output for the named backend
func New(backend string) (Output, error) {
	switch backend {
	case BackendOto, "":
		return NewOto(), nil
	case BackendMalgo:
		return NewMalgo(), nil
	case BackendPortAudio:
		return NewPortAudio(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", backend)
	}
}

// volumeControl is shared by every backend
type volumeControl struct {
	volume atomic.Int32
	muted  atomic.Bool
}

func newVolumeControl() *volumeControl {
	v := &volumeControl{}
	v.volume.Store(100)
	return v
}

func (v *volumeControl) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	v.volume.Store(int32(volume))
}

func (v *volumeControl) SetMuted(muted bool) {
	v.muted.Store(muted)
}

// GetVolume returns current volume
func (v *volumeControl) GetVolume() int {
	return int(v.volume.Load())
}

// IsMuted returns mute state
func (v *volumeControl) IsMuted() bool {
	return v.muted.Load()
}

func (v *volumeControl) multiplier() float64 {
	if v.muted.Load() {
		return 0.0
	}
	return float64(v.volume.Load()) / 100.0
}

// apply scales LE samples in place with clipping
func (v *volumeControl) apply(buf []byte) {
	mult := v.multiplier()
	if mult == 1.0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		audio.PutInt16LE(buf[i:], audio.Scale(audio.Int16FromLE(buf[i:]), mult))
	}
}

// sourceReader turns a Source into a device feed. Whatever the source
// cannot supply is filled with silence, so devices always get full periods.
type sourceReader struct {
	mu     sync.Mutex
	src    Source
	volume *volumeControl

	// bytes of silence inserted; read by tests and stats
	silence atomic.Int64
}

func newSourceReader(src Source, volume *volumeControl) *sourceReader {
	return &sourceReader{src: src, volume: volume}
}

// fill writes exactly len(p) bytes
func (r *sourceReader) fill(p []byte) {
	r.mu.Lock()
	n := 0
	if r.src != nil {
		n = r.src.ReadInto(p)
	}
	r.mu.Unlock()

	r.volume.apply(p[:n])
	if n < len(p) {
		clear(p[n:])
		r.silence.Add(int64(len(p) - n))
	}
}

// Read implements io.Reader for oto; it never returns io.EOF
func (r *sourceReader) Read(p []byte) (int, error) {
	p = p[:len(p)&^1]
	r.fill(p)
	return len(p), nil
}
