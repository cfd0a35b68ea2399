// ABOUTME: Tests for looping file readers
// ABOUTME: Covers extension dispatch, open failures and WAV looping
package decode

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestOpenFile_UnsupportedExtension(t *testing.T) {
	if _, err := OpenFile("voice.ogg"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestOpenFile_Missing(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"missing.mp3", "missing.FLAC", "missing.wav"} {
		if _, err := OpenFile(filepath.Join(dir, name)); err == nil {
			t.Errorf("OpenFile(%s) expected error", name)
		}
	}
}

func TestOpenFile_NotAudio(t *testing.T) {
	for _, name := range []string{"junk.flac", "junk.wav"} {
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte("not an audio stream"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}

		if _, err := OpenFile(path); err == nil {
			t.Errorf("OpenFile(%s) expected error for invalid data", name)
		}
	}
}

func TestShiftTo16(t *testing.T) {
	tests := []struct {
		bitDepth int
		in       int64
		want     int16
	}{
		{16, 1234, 1234},
		{24, 0x123400, 0x1234},
		{32, 0x12340000, 0x1234},
		{8, 0x12, 0x1200},
	}

	for _, tt := range tests {
		if got := shiftTo16(tt.in, tt.bitDepth); got != tt.want {
			t.Errorf("shiftTo16(%d, %d-bit) = %d, want %d", tt.in, tt.bitDepth, got, tt.want)
		}
	}
}

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:   data,
		Format: &goaudio.Format{SampleRate: rate, NumChannels: channels},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestWAVFile_DownmixAndLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// three stereo frames
	writeWAV(t, path, 16000, 2, []int{100, 300, -200, -400, 1000, 0})

	r, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer r.Close()

	if r.SampleRate() != 16000 {
		t.Errorf("SampleRate = %d, want 16000", r.SampleRate())
	}

	samples := make([]int16, 5)
	n, err := r.Read(samples)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 5 {
		t.Fatalf("Read returned %d samples, want 5", n)
	}

	want := []int16{200, -300, 500, 200, -300}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}
