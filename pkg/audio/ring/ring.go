// ABOUTME: Fixed-capacity byte ring buffer bridging capture and playback
// ABOUTME: Push never blocks or fails; on overflow the oldest unread bytes are dropped
package ring

import (
	"sync"
	"time"
)

const minCapacity = 4

// Policy selects how many bytes are discarded when a push catches up with the reader
type Policy int

const (
	// DropOldestSample discards two bytes so readers never see a phase-shifted 16-bit sample
	DropOldestSample Policy = iota
	// DropOldestByte discards a single byte
	DropOldestByte
)

func (p Policy) String() string {
	switch p {
	case DropOldestSample:
		return "drop-oldest-sample"
	case DropOldestByte:
		return "drop-oldest-byte"
	default:
		return "unknown"
	}
}

func (p Policy) dropWidth() int {
	if p == DropOldestByte {
		return 1
	}
	return 2
}

// Option configures a Buffer
type Option func(*Buffer)

// WithPolicy sets the overwrite policy
func WithPolicy(p Policy) Option {
	return func(b *Buffer) {
		b.policy = p
	}
}

// Stats counts bytes through the buffer
type Stats struct {
	Pushed  int64
	Popped  int64
	Dropped int64 // bytes discarded on overflow
}

// Buffer is a circular byte store with one permanently unusable slot,
// so Size() is always strictly less than Capacity().
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	readPos  int
	writePos int
	policy   Policy
	stats    Stats
}

// New creates a buffer of the given capacity in bytes
func New(capacity int, opts ...Option) *Buffer {
	b := &Buffer{policy: DropOldestSample}
	for _, opt := range opts {
		opt(b)
	}

	if capacity < minCapacity {
		capacity = minCapacity
	}
	if b.policy == DropOldestSample && capacity%2 != 0 {
		capacity++
	}

	b.data = make([]byte, capacity)
	return b
}

// CapacityFor derives a capacity from a target duration of audio
func CapacityFor(d time.Duration, sampleRate, channels, bytesPerSample int) int {
	samples := int64(sampleRate) * int64(d) / int64(time.Second)
	return int(samples) * channels * bytesPerSample
}

// Push appends one byte, discarding the oldest unread bytes if the buffer is full
func (b *Buffer) Push(v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.data)
	b.data[b.writePos] = v
	b.writePos = (b.writePos + 1) % capacity
	b.stats.Pushed++

	if b.writePos == b.readPos {
		width := b.policy.dropWidth()
		b.readPos = (b.readPos + width) % capacity
		b.stats.Dropped += int64(width)
	}
}

// Pop removes and returns the oldest byte; it returns 0 and leaves the
// cursors untouched when the buffer is empty
func (b *Buffer) Pop() byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readPos == b.writePos {
		return 0
	}

	v := b.data[b.readPos]
	b.readPos = (b.readPos + 1) % len(b.data)
	b.stats.Popped++
	return v
}

// Size returns the number of unread bytes
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizeLocked()
}

func (b *Buffer) sizeLocked() int {
	if b.writePos >= b.readPos {
		return b.writePos - b.readPos
	}
	return len(b.data) - b.readPos + b.writePos
}

// Capacity returns the fixed size of the backing array
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Policy returns the overwrite policy
func (b *Buffer) Policy() Policy {
	return b.policy
}

// ReadInto drains up to len(p) bytes, rounded down to whole 16-bit samples.
// It returns 0 without blocking when nothing is buffered.
func (b *Buffer) ReadInto(p []byte) int {
	n := min(len(p), b.Size())
	n &^= 1

	for i := 0; i < n; i++ {
		p[i] = b.Pop()
	}
	return n
}

// Reset discards all unread bytes
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.readPos = 0
	b.writePos = 0
}

// Stats returns a snapshot of the byte counters
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
