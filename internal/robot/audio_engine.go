// ABOUTME: Microphone fan-out for the robot server
// ABOUTME: Runs the microphone while anyone is subscribed and sends RTP audio frames
package robot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livecam/livecam-go/internal/protocol"
	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/encode"
	"github.com/smallnest/ringbuffer"
)

// subscription is one client's audio stream
type subscription struct {
	client     *Client
	id         string
	codec      string
	encoder    encode.Encoder
	packetizer *protocol.Packetizer
}

// AudioEngine owns the microphone and the subscriber set
type AudioEngine struct {
	server       *Server
	mic          Microphone
	sampleRate   int
	defaultCodec string
	frameSamples int

	ctx    context.Context
	cancel context.CancelFunc

	// lifecycle serializes microphone start/stop; onBatch never takes it
	lifecycle sync.Mutex
	running   bool

	// mu guards subs and staging; held while frames are queued so that
	// removal orders strictly after the last queued frame
	mu      sync.Mutex
	subs    map[string]*subscription
	staging *ringbuffer.RingBuffer
	frame   []byte

	framesSent atomic.Int64
	dropped    atomic.Int64
}

// NewAudioEngine creates an engine for mic at sampleRate
func NewAudioEngine(server *Server, mic Microphone, sampleRate int, defaultCodec string) *AudioEngine {
	ctx, cancel := context.WithCancel(context.Background())
	frameSamples := audio.FrameSamples(sampleRate)

	return &AudioEngine{
		server:       server,
		mic:          mic,
		sampleRate:   sampleRate,
		defaultCodec: defaultCodec,
		frameSamples: frameSamples,
		ctx:          ctx,
		cancel:       cancel,
		subs:         make(map[string]*subscription),
		staging:      ringbuffer.New(audio.BytesInDuration(time.Second, sampleRate, audio.Mono)),
		frame:        make([]byte, frameSamples*audio.BytesPerSample),
	}
}

// Subscribe validates the request, starts the microphone if needed and
// calls confirm before the first frame can be queued for the client.
func (e *AudioEngine) Subscribe(client *Client, req protocol.AudioSubscribe, confirm func(protocol.AudioSubscribed)) error {
	if req.SampleRate == 0 {
		req.SampleRate = e.sampleRate
	}
	if req.SampleRate != e.sampleRate {
		return fmt.Errorf("unsupported sample rate %d (microphone runs at %d)", req.SampleRate, e.sampleRate)
	}
	if req.Channels != 0 && req.Channels != audio.Mono {
		return fmt.Errorf("unsupported channel count %d", req.Channels)
	}
	codec := req.Codec
	if codec == "" {
		codec = e.defaultCodec
	}

	format := audio.Format{Codec: codec, SampleRate: e.sampleRate, Channels: audio.Mono, BitDepth: 16}
	encoder, err := encode.New(format)
	if err != nil {
		return err
	}
	pt, err := protocol.PayloadType(codec)
	if err != nil {
		encoder.Close()
		return err
	}

	id := req.ClientID
	if id == "" {
		id = client.ID
	}
	sub := &subscription{
		client:     client,
		id:         id,
		codec:      codec,
		encoder:    encoder,
		packetizer: protocol.NewPacketizer(pt, uint32(e.sampleRate)),
	}

	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.mu.Lock()
	_, exists := e.subs[client.ID]
	e.mu.Unlock()
	if exists {
		encoder.Close()
		return errAlreadySubscribed
	}

	if !e.running {
		if err := e.mic.Start(e.ctx, e.sampleRate, e.onBatch); err != nil {
			encoder.Close()
			return fmt.Errorf("failed to start microphone: %w", err)
		}
		e.running = true
		log.Printf("Microphone started: %s", e.mic.Name())
	}

	confirm(protocol.AudioSubscribed{ClientID: id, Codec: codec, SampleRate: e.sampleRate})

	e.mu.Lock()
	e.subs[client.ID] = sub
	e.mu.Unlock()

	client.setAudio(codec)
	log.Printf("Audio engine: %s subscribed (%s)", client.Name, codec)
	return nil
}

var (
	errAlreadySubscribed = errors.New("already subscribed")
	errNotSubscribed     = errors.New("not subscribed")
)

// Unsubscribe removes the client's subscription; id must match when given
func (e *AudioEngine) Unsubscribe(client *Client, id string) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.mu.Lock()
	sub, ok := e.subs[client.ID]
	if !ok {
		e.mu.Unlock()
		return errNotSubscribed
	}
	if id != "" && id != sub.id {
		e.mu.Unlock()
		return fmt.Errorf("unknown subscription %s", id)
	}
	delete(e.subs, client.ID)
	empty := len(e.subs) == 0
	e.mu.Unlock()

	sub.encoder.Close()
	client.setAudio("")
	log.Printf("Audio engine: %s unsubscribed", client.Name)

	if empty {
		e.stopMicrophone()
	}
	return nil
}

// RemoveClient drops any subscription held by a disconnected client
func (e *AudioEngine) RemoveClient(client *Client) {
	if err := e.Unsubscribe(client, ""); err != nil && !errors.Is(err, errNotSubscribed) {
		log.Printf("Audio engine: removing %s: %v", client.Name, err)
	}
}

// stopMicrophone must hold lifecycle
func (e *AudioEngine) stopMicrophone() {
	if !e.running {
		return
	}
	if err := e.mic.Stop(); err != nil {
		log.Printf("Microphone stop error: %v", err)
	}
	e.running = false

	e.mu.Lock()
	e.staging.Reset()
	e.mu.Unlock()
	log.Printf("Microphone stopped")
}

// Stop halts the microphone regardless of subscribers
func (e *AudioEngine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.stopMicrophone()
	e.cancel()
}

// Running reports whether the microphone is delivering
func (e *AudioEngine) Running() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	return e.running
}

// onBatch regroups microphone batches into fixed frames
func (e *AudioEngine) onBatch(batch audio.Batch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := audio.SamplesToBytes(batch.Samples)
	if n, err := e.staging.Write(data); err != nil {
		log.Printf("Audio engine: staging full, dropped %d bytes", len(data)-n)
	}

	for e.staging.Length() >= len(e.frame) {
		if _, err := e.staging.Read(e.frame); err != nil {
			log.Printf("Audio engine: staging read failed: %v", err)
			return
		}
		e.sendFrame(audio.BytesToSamples(e.frame))
	}
}

// sendFrame must hold mu
func (e *AudioEngine) sendFrame(samples []int16) {
	timestamp := e.server.getClockMicros()

	for _, sub := range e.subs {
		payload, err := sub.encoder.Encode(samples)
		if err != nil {
			log.Printf("Audio engine: encode for %s failed: %v", sub.client.Name, err)
			continue
		}

		packet, err := sub.packetizer.Packetize(payload, len(samples))
		if err != nil {
			log.Printf("Audio engine: packetize for %s failed: %v", sub.client.Name, err)
			continue
		}

		chunk := protocol.EncodeBinary(protocol.BinaryAudio, timestamp, packet)
		if err := e.server.sendBinary(sub.client, chunk); err != nil {
			e.dropped.Add(1)
			if e.server.config.Debug {
				log.Printf("[DEBUG] Dropping audio for %s: %v", sub.client.Name, err)
			}
			continue
		}
		e.framesSent.Add(1)
	}
}

// Subscribers returns the number of active subscriptions
func (e *AudioEngine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
