// ABOUTME: Push-model playback sink with a dedicated writer goroutine
// ABOUTME: Double buffered, woken by a bounded signal that drops under overload
package playback

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/resample"
)

const (
	// maxPendingWakes bounds the backlog between Write and the worker
	maxPendingWakes = 2

	defaultCloseTimeout = 5 * time.Second
)

// WorkerConfig sizes a WorkerSink
type WorkerConfig struct {
	InputRate      int
	OutputRate     int
	BufferDuration time.Duration
	CloseTimeout   time.Duration
}

// DefaultWorkerConfig returns 16 kHz in, 48 kHz out, 100ms per write
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		InputRate:      audio.InputSampleRate,
		OutputRate:     audio.OutputSampleRate,
		BufferDuration: 100 * time.Millisecond,
		CloseTimeout:   defaultCloseTimeout,
	}
}

// WorkerStats counts push-model activity
type WorkerStats struct {
	Writes   int64
	Dropped  int64
	Clamped  int64
	Flushed  int64
	Failures int64
}

// WorkerSink accepts int16 batches without blocking and writes the
// converted bytes to an io.Writer on its own goroutine.
type WorkerSink struct {
	dup       *resample.Duplicator
	maxInput  int
	closeWait time.Duration

	// mu guards buffers[0], pending length, out and closed
	mu      sync.Mutex
	buffers [2][]byte
	length  int
	out     io.Writer
	closed  bool

	wake    chan struct{}
	pending atomic.Int32
	quit    atomic.Bool
	done    chan struct{}

	writes   atomic.Int64
	dropped  atomic.Int64
	clamped  atomic.Int64
	flushed  atomic.Int64
	failures atomic.Int64
}

// NewWorkerSink allocates both buffers and starts the worker
func NewWorkerSink(out io.Writer, cfg WorkerConfig) (*WorkerSink, error) {
	dup, err := resample.NewDuplicator(cfg.InputRate, cfg.OutputRate)
	if err != nil {
		return nil, err
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = 100 * time.Millisecond
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}

	size := audio.BytesInDuration(cfg.BufferDuration, cfg.OutputRate, audio.Mono)
	s := &WorkerSink{
		dup:       dup,
		maxInput:  size / audio.BytesPerSample / dup.Ratio,
		closeWait: cfg.CloseTimeout,
		out:       out,
		wake:      make(chan struct{}, maxPendingWakes),
		done:      make(chan struct{}),
	}
	s.buffers[0] = make([]byte, 0, size)
	s.buffers[1] = make([]byte, size)

	go s.run()
	return s, nil
}

// Write converts samples into the active buffer and wakes the worker.
// It never blocks on the device.
func (s *WorkerSink) Write(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.writes.Add(1)

	if len(samples) > s.maxInput {
		log.Printf("Playback write of %d samples exceeds buffer, clamping to %d", len(samples), s.maxInput)
		samples = samples[:s.maxInput]
		s.clamped.Add(1)
	}

	if s.pending.Load() > 1 {
		s.dropped.Add(1)
		log.Printf("Playback worker behind, dropping %d samples", len(samples))
		return
	}

	s.buffers[0] = s.dup.AppendLE(s.buffers[0][:0], samples)
	s.length = len(s.buffers[0])

	s.pending.Add(1)
	s.wake <- struct{}{}
}

func (s *WorkerSink) run() {
	defer close(s.done)

	for range s.wake {
		s.pending.Add(-1)
		if s.quit.Load() {
			return
		}

		s.mu.Lock()
		n := copy(s.buffers[1], s.buffers[0][:s.length])
		out := s.out
		s.mu.Unlock()

		if out == nil || n == 0 {
			continue
		}
		if _, err := out.Write(s.buffers[1][:n]); err != nil {
			s.failures.Add(1)
			log.Printf("Playback write failed: %v", err)
			continue
		}
		s.flushed.Add(int64(n))
	}
}

// SetOutput swaps the device; nil discards flushed audio
func (s *WorkerSink) SetOutput(out io.Writer) {
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
}

// Close stops the worker, waits for it, then frees the buffers
func (s *WorkerSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.quit.Store(true)

	// never blocks: Write is excluded by mu and the worker drains
	select {
	case s.wake <- struct{}{}:
		s.pending.Add(1)
	default:
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-time.After(s.closeWait):
		log.Printf("Playback worker did not exit within %v", s.closeWait)
		return nil
	}

	s.mu.Lock()
	s.buffers[0] = nil
	s.buffers[1] = nil
	s.mu.Unlock()
	return nil
}

// Stats returns push-model counters
func (s *WorkerSink) Stats() WorkerStats {
	return WorkerStats{
		Writes:   s.writes.Load(),
		Dropped:  s.dropped.Load(),
		Clamped:  s.clamped.Load(),
		Flushed:  s.flushed.Load(),
		Failures: s.failures.Load(),
	}
}
