// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pull playback and a push-model pipe writer over the oto library
package output

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process; it is created on first use and kept
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

func sharedContext(sampleRate, channels int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != sampleRate || otoChannels != channels {
			log.Printf("Warning: format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				otoRate, otoChannels, sampleRate, channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   40 * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoRate = sampleRate
	otoChannels = channels
	return ctx, nil
}

// Oto plays a Source through a persistent oto player
type Oto struct {
	*volumeControl

	reader *sourceReader
	player *oto.Player
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{volumeControl: newVolumeControl()}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int, src Source) error {
	if o.player != nil {
		return fmt.Errorf("output already open")
	}

	ctx, err := sharedContext(sampleRate, channels)
	if err != nil {
		return err
	}

	o.reader = newSourceReader(src, o.volumeControl)
	o.player = ctx.NewPlayer(o.reader)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", sampleRate, channels)
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	return err
}

// Pipe is an io.Writer that plays whatever is written to it. Writes block
// until oto has consumed the bytes, which paces a push-model producer.
type Pipe struct {
	*volumeControl

	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	player     *oto.Player
}

// NewPipe opens a persistent oto player reading from a pipe
func NewPipe(sampleRate, channels int) (*Pipe, error) {
	ctx, err := sharedContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	p := &Pipe{volumeControl: newVolumeControl()}
	p.pipeReader, p.pipeWriter = io.Pipe()
	p.player = ctx.NewPlayer(p.pipeReader)
	p.player.Play()

	log.Printf("Audio pipe initialized: %dHz, %d channels (oto)", sampleRate, channels)
	return p, nil
}

// Write outputs PCM bytes (blocks until written)
func (p *Pipe) Write(data []byte) (int, error) {
	buf := data
	if p.multiplier() != 1.0 {
		buf = append([]byte(nil), data...)
		p.apply(buf)
	}

	if _, err := p.pipeWriter.Write(buf); err != nil {
		return 0, fmt.Errorf("pipe write failed: %w", err)
	}
	return len(data), nil
}

// Close releases output resources
func (p *Pipe) Close() error {
	p.pipeWriter.Close()
	err := p.player.Close()
	p.pipeReader.Close()
	return err
}
