// ABOUTME: Tests for integer-ratio resampling
// ABOUTME: Tests ratio validation, duplication byte layout and decimation phase
package resample

import (
	"bytes"
	"errors"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		want    int
		wantErr bool
	}{
		{"16k to 48k", 16000, 48000, 3, false},
		{"same rate", 16000, 16000, 1, false},
		{"16k to 32k", 16000, 32000, 2, false},
		{"44.1k to 48k", 44100, 48000, 0, true},
		{"downsample direction", 48000, 16000, 0, true},
		{"zero input", 0, 48000, 0, true},
		{"negative output", 16000, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Ratio(tt.in, tt.out)
			if tt.wantErr {
				if !errors.Is(err, ErrNonIntegerRatio) {
					t.Fatalf("expected ErrNonIntegerRatio, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected ratio %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAppendLE(t *testing.T) {
	dup, err := NewDuplicator(16000, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := dup.AppendLE(nil, []int16{100, -100})
	want := []byte{
		0x64, 0x00, 0x64, 0x00, 0x64, 0x00,
		0x9C, 0xFF, 0x9C, 0xFF, 0x9C, 0xFF,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(got) != dup.OutputBytes(2) {
		t.Errorf("OutputBytes(2)=%d but produced %d bytes", dup.OutputBytes(2), len(got))
	}
}

func TestAppendLEMatchesRepeatedSamples(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}

	for ratio := 1; ratio <= 4; ratio++ {
		dup := &Duplicator{Ratio: ratio}
		got := dup.AppendLE(nil, samples)

		var want []byte
		for _, s := range samples {
			for j := 0; j < ratio; j++ {
				want = append(want, byte(uint16(s)), byte(uint16(s)>>8))
			}
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ratio %d: expected %v, got %v", ratio, want, got)
		}
	}
}

func TestAppendLEReusesDestination(t *testing.T) {
	dup := &Duplicator{Ratio: 3}
	scratch := make([]byte, 0, 64)

	out := dup.AppendLE(scratch[:0], []int16{1})
	if len(out) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(out))
	}
	if &out[0] != &scratch[:1][0] {
		t.Error("expected AppendLE to write into the provided backing array")
	}
}

func TestDuplicateSamples(t *testing.T) {
	dup := &Duplicator{Ratio: 3}
	got := dup.DuplicateSamples(nil, []int16{5, -5})
	want := []int16{5, 5, 5, -5, -5, -5}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDecimatorCarriesPhase(t *testing.T) {
	dec, err := NewDecimator(48000, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out []int16
	// Split 0..8 across uneven chunks; every third sample survives
	out = dec.Decimate(out, []int16{0, 1})
	out = dec.Decimate(out, []int16{2, 3, 4, 5, 6})
	out = dec.Decimate(out, []int16{7, 8})

	want := []int16{0, 3, 6}
	if len(out) != len(want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("expected %v, got %v", want, out)
		}
	}

	dec.Reset()
	if got := dec.Decimate(nil, []int16{9}); len(got) != 1 || got[0] != 9 {
		t.Errorf("expected reset decimator to keep first sample, got %v", got)
	}
}

func TestNewDecimatorRejectsUpsampling(t *testing.T) {
	if _, err := NewDecimator(16000, 48000); !errors.Is(err, ErrNonIntegerRatio) {
		t.Errorf("expected ErrNonIntegerRatio, got %v", err)
	}
}
