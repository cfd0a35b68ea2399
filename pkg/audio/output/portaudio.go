//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using PortAudio
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/livecam/livecam-go/pkg/audio"
)

// PortAudio output implementation
type PortAudio struct {
	*volumeControl

	stream *portaudio.Stream
	reader *sourceReader
	buf    []byte
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{volumeControl: newVolumeControl()}
}

// Open initializes PortAudio
func (p *PortAudio) Open(sampleRate, channels int, src Source) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.reader = newSourceReader(src, p.volumeControl)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), 0, func(out []int16) {
		if cap(p.buf) < len(out)*2 {
			p.buf = make([]byte, len(out)*2)
		}
		buf := p.buf[:len(out)*2]
		p.reader.fill(buf)
		for i := range out {
			out[i] = audio.Int16FromLE(buf[i*2:])
		}
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
