package playback

import (
	"bytes"
	"testing"

	"github.com/livecam/livecam-go/pkg/audio/ring"
)

func fill(b *ring.Buffer, n int) {
	for i := 0; i < n; i++ {
		b.Push(byte(i + 1))
	}
}

func TestPullSink_ReadInto(t *testing.T) {
	tests := []struct {
		name      string
		buffered  int
		maxLen    int
		want      int
		remaining int
	}{
		{"seven bytes max ten", 7, 10, 6, 1},
		{"empty", 0, 10, 0, 0},
		{"limited by maxLen", 20, 8, 8, 12},
		{"odd maxLen", 20, 9, 8, 12},
		{"single byte", 1, 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := ring.New(64)
			fill(buf, tt.buffered)
			sink := NewPullSink(buf)

			p := make([]byte, tt.maxLen)
			if n := sink.ReadInto(p); n != tt.want {
				t.Errorf("ReadInto() = %d, want %d", n, tt.want)
			}
			if buf.Size() != tt.remaining {
				t.Errorf("remaining = %d, want %d", buf.Size(), tt.remaining)
			}
		})
	}
}

func TestPullSink_NoZeroFill(t *testing.T) {
	buf := ring.New(16)
	fill(buf, 2)
	sink := NewPullSink(buf)

	p := []byte{0xaa, 0xaa, 0xaa, 0xaa}
	n := sink.ReadInto(p)

	if !bytes.Equal(p, []byte{1, 2, 0xaa, 0xaa}) {
		t.Errorf("buffer = %v; bytes past %d must be untouched", p, n)
	}
}

func TestPullSink_ReadNeverEOF(t *testing.T) {
	sink := NewPullSink(ring.New(16))

	n, err := sink.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Errorf("Read() = (%d, %v), want (0, nil)", n, err)
	}
}

func TestPullSink_Stats(t *testing.T) {
	buf := ring.New(64)
	fill(buf, 10)
	sink := NewPullSink(buf)

	sink.ReadInto(make([]byte, 4))
	sink.ReadInto(make([]byte, 16))
	sink.ReadInto(make([]byte, 16))

	stats := sink.Stats()
	if stats.Reads != 3 {
		t.Errorf("reads = %d, want 3", stats.Reads)
	}
	if stats.Underruns != 2 {
		t.Errorf("underruns = %d, want 2", stats.Underruns)
	}
	if stats.Bytes != 10 {
		t.Errorf("bytes = %d, want 10", stats.Bytes)
	}
}
