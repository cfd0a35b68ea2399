// ABOUTME: Looping file readers for MP3, FLAC and WAV
// ABOUTME: Produce mono int16 samples at the file's native rate
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// FileReader reads mono samples from an audio file, looping at the end
type FileReader interface {
	// Read fills samples and returns how many were written
	Read(samples []int16) (int, error)

	// SampleRate returns the file's native rate
	SampleRate() int

	// Close releases the file
	Close() error
}

// OpenFile picks a reader by file extension
func OpenFile(path string) (FileReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return NewMP3File(path)
	case ".flac":
		return NewFLACFile(path)
	case ".wav":
		return NewWAVFile(path)
	default:
		return nil, fmt.Errorf("unsupported audio file: %s", path)
	}
}

// MP3File reads an MP3 file; go-mp3 always decodes to 16-bit stereo
type MP3File struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
}

// NewMP3File opens an MP3 file for looping playback
func NewMP3File(path string) (*MP3File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", filepath.Base(path), decoder.SampleRate())

	return &MP3File{file: f, decoder: decoder}, nil
}

// Read downmixes stereo frames to mono
func (m *MP3File) Read(samples []int16) (int, error) {
	need := len(samples) * 4
	if cap(m.buf) < need {
		m.buf = make([]byte, need)
	}
	buf := m.buf[:need]

	n, err := io.ReadFull(m.decoder, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}

	frames := n / 4
	for i := 0; i < frames; i++ {
		left := int32(int16(binary.LittleEndian.Uint16(buf[i*4:])))
		right := int32(int16(binary.LittleEndian.Uint16(buf[i*4+2:])))
		samples[i] = int16((left + right) / 2)
	}

	if err != nil {
		if rewindErr := m.rewind(); rewindErr != nil {
			return frames, rewindErr
		}
	}

	return frames, nil
}

func (m *MP3File) rewind() error {
	if _, err := m.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(m.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	m.decoder = decoder
	return nil
}

func (m *MP3File) SampleRate() int { return m.decoder.SampleRate() }
func (m *MP3File) Close() error    { return m.file.Close() }

// FLACFile reads a FLAC file of any channel count and bit depth
type FLACFile struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int

	// samples decoded from the last frame but not yet returned
	pending []int16
}

// NewFLACFile opens a FLAC file for looping playback
func NewFLACFile(path string) (*FLACFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		filepath.Base(path), info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLACFile{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
	}, nil
}

func (s *FLACFile) Read(samples []int16) (int, error) {
	read := 0
	for read < len(samples) {
		if len(s.pending) > 0 {
			n := copy(samples[read:], s.pending)
			s.pending = s.pending[n:]
			read += n
			continue
		}

		frame, err := s.stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if rewindErr := s.rewind(); rewindErr != nil {
					return read, rewindErr
				}
				continue
			}
			return read, err
		}

		mono := make([]int16, frame.BlockSize)
		for i := range mono {
			var sum int64
			for ch := 0; ch < s.channels; ch++ {
				sum += int64(frame.Subframes[ch].Samples[i])
			}
			mono[i] = shiftTo16(sum/int64(s.channels), s.bitDepth)
		}
		s.pending = mono
	}
	return read, nil
}

// shiftTo16 rescales a signed sample of bitDepth bits to 16 bits
func shiftTo16(v int64, bitDepth int) int16 {
	shift := bitDepth - 16
	if shift > 0 {
		v >>= uint(shift)
	} else if shift < 0 {
		v <<= uint(-shift)
	}
	return int16(v)
}

func (s *FLACFile) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLACFile) SampleRate() int { return s.sampleRate }
func (s *FLACFile) Close() error    { return s.file.Close() }
