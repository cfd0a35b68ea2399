// ABOUTME: Looping WAV file reader
// ABOUTME: Decodes PCM WAV via go-audio/wav and downmixes to mono int16
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVFile reads a PCM WAV file of any channel count
type WAVFile struct {
	file     *os.File
	decoder  *wav.Decoder
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
}

// NewWAVFile opens a WAV file for looping playback
func NewWAVFile(path string) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		f.Close()
		return nil, errors.New("invalid WAV file format")
	}
	if decoder.NumChans == 0 {
		f.Close()
		return nil, errors.New("WAV file has no channels")
	}
	switch decoder.BitDepth {
	case 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", decoder.BitDepth)
	}

	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		filepath.Base(path), decoder.SampleRate, decoder.NumChans, decoder.BitDepth)

	return &WAVFile{
		file:     f,
		decoder:  decoder,
		channels: int(decoder.NumChans),
		bitDepth: int(decoder.BitDepth),
	}, nil
}

func (w *WAVFile) Read(samples []int16) (int, error) {
	want := len(samples) * w.channels
	if w.buf == nil || cap(w.buf.Data) < want {
		w.buf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: &goaudio.Format{SampleRate: w.SampleRate(), NumChannels: w.channels},
		}
	}

	read := 0
	rewound := false
	for read < len(samples) {
		w.buf.Data = w.buf.Data[:(len(samples)-read)*w.channels]
		n, err := w.decoder.PCMBuffer(w.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return read, fmt.Errorf("error reading WAV data: %w", err)
		}

		frames := n / w.channels
		if frames == 0 {
			if rewound {
				// two empty reads in a row: the file has no audio
				return read, io.ErrUnexpectedEOF
			}
			if err := w.rewind(); err != nil {
				return read, err
			}
			rewound = true
			continue
		}
		rewound = false

		for i := 0; i < frames; i++ {
			var sum int64
			for ch := 0; ch < w.channels; ch++ {
				sum += int64(w.buf.Data[i*w.channels+ch])
			}
			samples[read+i] = shiftTo16(sum/int64(w.channels), w.bitDepth)
		}
		read += frames
	}
	return read, nil
}

func (w *WAVFile) rewind() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	w.decoder = wav.NewDecoder(w.file)
	w.decoder.ReadInfo()
	return nil
}

func (w *WAVFile) SampleRate() int { return int(w.decoder.SampleRate) }
func (w *WAVFile) Close() error    { return w.file.Close() }
