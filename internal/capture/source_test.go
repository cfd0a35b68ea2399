package capture

import (
	"bytes"
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/ring"
)

func drain(b *ring.Buffer) []byte {
	out := make([]byte, b.Size())
	n := b.ReadInto(out)
	return out[:n]
}

func TestSampleSource_Conversion(t *testing.T) {
	tests := []struct {
		name    string
		outRate int
		samples []int16
		want    []byte
	}{
		{
			name:    "ratio 3",
			outRate: 48000,
			samples: []int16{100, -100},
			want:    []byte{0x64, 0x00, 0x64, 0x00, 0x64, 0x00, 0x9c, 0xff, 0x9c, 0xff, 0x9c, 0xff},
		},
		{
			name:    "ratio 1",
			outRate: 16000,
			samples: []int16{1, 256},
			want:    []byte{0x01, 0x00, 0x00, 0x01},
		},
		{
			name:    "ratio 2",
			outRate: 32000,
			samples: []int16{-1},
			want:    []byte{0xff, 0xff, 0xff, 0xff},
		},
		{
			name:    "empty batch",
			outRate: 48000,
			samples: nil,
			want:    []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := ring.New(1024)
			src, err := NewSampleSource(buf, 16000, tt.outRate)
			if err != nil {
				t.Fatalf("NewSampleSource() error: %v", err)
			}

			src.OnSamples(audio.Batch{Samples: tt.samples})

			if got := drain(buf); !bytes.Equal(got, tt.want) {
				t.Errorf("pushed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleSource_ClampsOversizedBatch(t *testing.T) {
	// room for more than one second of 16kHz duplicated by 1
	buf := ring.New(16000*2*2 + 2)
	src, err := NewSampleSource(buf, 16000, 16000)
	if err != nil {
		t.Fatalf("NewSampleSource() error: %v", err)
	}

	src.OnSamples(audio.Batch{Samples: make([]int16, 20000)})

	if size := buf.Size(); size != 16000*2 {
		t.Errorf("size = %d, want %d", size, 16000*2)
	}
	stats := src.Stats()
	if stats.Clamped != 1 || stats.Samples != 16000 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSampleSource_NoStateAcrossCalls(t *testing.T) {
	buf := ring.New(64)
	src, err := NewSampleSource(buf, 16000, 48000)
	if err != nil {
		t.Fatalf("NewSampleSource() error: %v", err)
	}

	src.OnSamples(audio.Batch{Samples: []int16{1, 2, 3}})
	src.OnSamples(audio.Batch{Samples: []int16{4}})

	want := make([]byte, 0, 24)
	for _, s := range []int16{1, 2, 3, 4} {
		for i := 0; i < 3; i++ {
			want = append(want, byte(s), byte(s>>8))
		}
	}
	if got := drain(buf); !bytes.Equal(got, want) {
		t.Errorf("pushed %v, want %v", got, want)
	}
}

func TestNewSampleSource_BadRatio(t *testing.T) {
	if _, err := NewSampleSource(ring.New(8), 16000, 44100); err == nil {
		t.Fatal("expected error")
	}
}
