// ABOUTME: Integer-ratio sample rate conversion
// ABOUTME: Upsamples by repeating samples and downsamples by keeping every Nth sample
package resample

import (
	"errors"
	"fmt"

	"github.com/livecam/livecam-go/pkg/audio"
)

// ErrNonIntegerRatio is returned when the two rates are not integer multiples
var ErrNonIntegerRatio = errors.New("resample: rates are not an integer ratio")

// Ratio returns outputRate / inputRate when it is a positive integer
func Ratio(inputRate, outputRate int) (int, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return 0, fmt.Errorf("%w: %d -> %d", ErrNonIntegerRatio, inputRate, outputRate)
	}
	if outputRate%inputRate != 0 {
		return 0, fmt.Errorf("%w: %d -> %d", ErrNonIntegerRatio, inputRate, outputRate)
	}
	return outputRate / inputRate, nil
}

// Duplicator upsamples by repeating every input sample Ratio times.
// There is no interpolation or filtering.
type Duplicator struct {
	Ratio int
}

// NewDuplicator creates a duplicator for the given rates
func NewDuplicator(inputRate, outputRate int) (*Duplicator, error) {
	ratio, err := Ratio(inputRate, outputRate)
	if err != nil {
		return nil, err
	}
	return &Duplicator{Ratio: ratio}, nil
}

// OutputBytes returns how many bytes AppendLE produces for n input samples
func (d *Duplicator) OutputBytes(n int) int {
	return n * d.Ratio * audio.BytesPerSample
}

// AppendLE appends each sample Ratio times as little-endian bytes (low, high)
func (d *Duplicator) AppendLE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		lo, hi := byte(s), byte(uint16(s)>>8)
		for j := 0; j < d.Ratio; j++ {
			dst = append(dst, lo, hi)
		}
	}
	return dst
}

// DuplicateSamples appends each sample Ratio times
func (d *Duplicator) DuplicateSamples(dst []int16, samples []int16) []int16 {
	for _, s := range samples {
		for j := 0; j < d.Ratio; j++ {
			dst = append(dst, s)
		}
	}
	return dst
}

// Decimator downsamples by keeping every Ratio-th sample.
// Phase is carried across calls so chunk boundaries don't matter.
type Decimator struct {
	Ratio int
	phase int
}

// NewDecimator creates a decimator for the given rates
func NewDecimator(inputRate, outputRate int) (*Decimator, error) {
	ratio, err := Ratio(outputRate, inputRate)
	if err != nil {
		return nil, err
	}
	return &Decimator{Ratio: ratio}, nil
}

// Decimate appends the kept samples to dst
func (d *Decimator) Decimate(dst []int16, samples []int16) []int16 {
	for _, s := range samples {
		if d.phase == 0 {
			dst = append(dst, s)
		}
		d.phase = (d.phase + 1) % d.Ratio
	}
	return dst
}

// Reset clears the carried phase
func (d *Decimator) Reset() {
	d.phase = 0
}
