// ABOUTME: Audio output tests
// ABOUTME: Verifies backend selection, volume and silence fill
package output

import (
	"testing"

	"github.com/livecam/livecam-go/pkg/audio"
)

var (
	_ Output = (*Oto)(nil)
	_ Output = (*Malgo)(nil)
	_ Output = (*PortAudio)(nil)
)

// fakeSource hands out a fixed byte slice once
type fakeSource struct {
	data []byte
}

func (f *fakeSource) ReadInto(p []byte) int {
	n := copy(p, f.data)
	n &^= 1
	f.data = f.data[n:]
	return n
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{BackendOto, false},
		{BackendMalgo, false},
		{BackendPortAudio, false},
		{"alsa", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			out, err := New(tt.backend)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if !tt.wantErr && out == nil {
				t.Fatalf("New(%q) returned nil", tt.backend)
			}
		})
	}
}

func TestSourceReader_FillsSilence(t *testing.T) {
	src := &fakeSource{data: []byte{1, 0, 2, 0}}
	r := newSourceReader(src, newVolumeControl())

	p := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if n != len(p) {
		t.Fatalf("Read() = %d, want %d", n, len(p))
	}

	want := []byte{1, 0, 2, 0, 0, 0, 0, 0}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("byte %d = %d, want %d", i, p[i], want[i])
		}
	}
	if got := r.silence.Load(); got != 4 {
		t.Errorf("silence = %d, want 4", got)
	}
}

func TestSourceReader_NilSource(t *testing.T) {
	r := newSourceReader(nil, newVolumeControl())
	p := []byte{5, 5}
	r.fill(p)
	if p[0] != 0 || p[1] != 0 {
		t.Errorf("expected silence, got %v", p)
	}
}

func TestSourceReader_OddLength(t *testing.T) {
	r := newSourceReader(&fakeSource{}, newVolumeControl())
	n, _ := r.Read(make([]byte, 5))
	if n != 4 {
		t.Errorf("Read() = %d, want 4", n)
	}
}

func TestVolumeControl(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		muted  bool
		in     int16
		want   int16
	}{
		{"full", 100, false, 1000, 1000},
		{"half", 50, false, 1000, 500},
		{"muted", 100, true, 1000, 0},
		{"clamped high", 150, false, 1000, 1000},
		{"clamped low", -10, false, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVolumeControl()
			v.SetVolume(tt.volume)
			v.SetMuted(tt.muted)

			buf := make([]byte, 2)
			audio.PutInt16LE(buf, tt.in)
			v.apply(buf)

			if got := audio.Int16FromLE(buf); got != tt.want {
				t.Errorf("apply(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
