// ABOUTME: Capture lifecycle: Idle and Capturing
// ABOUTME: Owns the per-session ring buffer and hands out a Reader for playback
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/resample"
	"github.com/livecam/livecam-go/pkg/audio/ring"
)

// ErrAlreadyCapturing is returned by Start while a session is active
var ErrAlreadyCapturing = errors.New("capture: already capturing")

// State of the capture module
type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds capture parameters
type Config struct {
	// Name is the client identifier sent with the subscription
	Name           string
	InputRate      int
	OutputRate     int
	Channel        Channel
	BufferDuration time.Duration
	Policy         ring.Policy
}

// DefaultConfig returns 16 kHz in, 48 kHz out, one second of buffer
func DefaultConfig() Config {
	return Config{
		Name:           "livecam-viewer",
		InputRate:      audio.InputSampleRate,
		OutputRate:     audio.OutputSampleRate,
		Channel:        ChannelMono,
		BufferDuration: time.Second,
		Policy:         ring.DropOldestSample,
	}
}

// Reader drains the active session's buffer
type Reader interface {
	ReadInto(p []byte) int
}

// BufferStats describes the current session buffer
type BufferStats struct {
	ring.Stats
	Size     int
	Capacity int
}

// session lives from a successful Start to the next Stop
type session struct {
	buf    *ring.Buffer
	source *SampleSource
}

// Module runs the capture state machine against a Device
type Module struct {
	dev Device
	cfg Config

	// mu serializes Start/Stop; callbacks never take it
	mu       sync.Mutex
	state    State
	clientID string

	active atomic.Pointer[session]
}

// New validates cfg and returns an idle module
func New(dev Device, cfg Config) (*Module, error) {
	if dev == nil {
		return nil, fmt.Errorf("capture: nil device")
	}
	if _, err := resample.Ratio(cfg.InputRate, cfg.OutputRate); err != nil {
		return nil, fmt.Errorf("capture: %d Hz to %d Hz: %w", cfg.InputRate, cfg.OutputRate, err)
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = time.Second
	}
	if cfg.Channel == 0 {
		cfg.Channel = ChannelMono
	}
	return &Module{dev: dev, cfg: cfg}, nil
}

// Start subscribes to the device. A failed subscription is logged and
// leaves the module Idle; only a second Start reports an error.
func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Capturing {
		return ErrAlreadyCapturing
	}

	capacity := ring.CapacityFor(m.cfg.BufferDuration, m.cfg.OutputRate, int(m.cfg.Channel), audio.BytesPerSample)
	buf := ring.New(capacity, ring.WithPolicy(m.cfg.Policy))
	source, err := NewSampleSource(buf, m.cfg.InputRate, m.cfg.OutputRate)
	if err != nil {
		log.Printf("Failed to create sample source: %v", err)
		return nil
	}

	// batches may arrive before Subscribe returns
	m.active.Store(&session{buf: buf, source: source})

	prefs := Preferences{
		ClientID:    m.cfg.Name,
		SampleRate:  m.cfg.InputRate,
		Channels:    m.cfg.Channel,
		Interleaved: false,
	}
	clientID, err := m.dev.Subscribe(ctx, prefs, m.onBatch)
	if err != nil {
		m.active.Store(nil)
		log.Printf("Failed to subscribe to microphone: %v", err)
		return nil
	}

	m.clientID = clientID
	m.state = Capturing
	log.Printf("Capture started (client %s, %d bytes buffered max, policy %s)", clientID, capacity, m.cfg.Policy)
	return nil
}

// Stop unsubscribes if capturing. It always ends Idle.
func (m *Module) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Idle {
		return
	}

	if err := m.dev.Unsubscribe(ctx, m.clientID); err != nil {
		log.Printf("Failed to unsubscribe from microphone: %v", err)
	}

	m.active.Store(nil)
	m.clientID = ""
	m.state = Idle
	log.Printf("Capture stopped")
}

// Close stops capture
func (m *Module) Close() error {
	m.Stop(context.Background())
	return nil
}

// State returns the lifecycle state
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsCapturing reports whether a session is active
func (m *Module) IsCapturing() bool {
	return m.State() == Capturing
}

// Reader returns a handle draining whichever session is active
func (m *Module) Reader() Reader {
	return moduleReader{m}
}

// BufferStats reports on the active session buffer, zero when idle
func (m *Module) BufferStats() BufferStats {
	s := m.active.Load()
	if s == nil {
		return BufferStats{}
	}
	return BufferStats{
		Stats:    s.buf.Stats(),
		Size:     s.buf.Size(),
		Capacity: s.buf.Capacity(),
	}
}

// SourceStats reports on the active session producer, zero when idle
func (m *Module) SourceStats() SourceStats {
	s := m.active.Load()
	if s == nil {
		return SourceStats{}
	}
	return s.source.Stats()
}

// onBatch is handed to the device. After Stop it drops batches.
func (m *Module) onBatch(batch audio.Batch) {
	s := m.active.Load()
	if s == nil {
		return
	}
	s.source.OnSamples(batch)
}

type moduleReader struct {
	m *Module
}

func (r moduleReader) ReadInto(p []byte) int {
	s := r.m.active.Load()
	if s == nil {
		return 0
	}
	return s.buf.ReadInto(p)
}
