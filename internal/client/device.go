// ABOUTME: Robot microphone exposed as a capture device
// ABOUTME: Subscribes over the connection and decodes audio frames into batches
package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/internal/protocol"
	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/decode"
)

// RemoteMicrophone delivers the robot's microphone through a Client
type RemoteMicrophone struct {
	client *Client
	codec  string

	mu     sync.Mutex
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRemoteMicrophone asks for codec when subscribing; empty lets the robot pick
func NewRemoteMicrophone(client *Client, codec string) *RemoteMicrophone {
	return &RemoteMicrophone{client: client, codec: codec}
}

// Subscribe starts the robot microphone and pumps decoded batches to cb
func (m *RemoteMicrophone) Subscribe(ctx context.Context, prefs capture.Preferences, cb capture.BatchFunc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return "", fmt.Errorf("already subscribed as %s", m.id)
	}

	resp, err := m.client.SubscribeAudio(ctx, protocol.AudioSubscribe{
		ClientID:    prefs.ClientID,
		SampleRate:  prefs.SampleRate,
		Channels:    int(prefs.Channels),
		Interleaved: prefs.Interleaved,
		Codec:       m.codec,
	})
	if err != nil {
		return "", err
	}

	decoders := make(map[uint8]decode.Decoder)
	pumpCtx, cancel := context.WithCancel(context.Background())
	m.id = resp.ClientID
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.pump(pumpCtx, resp.SampleRate, decoders, cb, m.done)

	log.Printf("Remote microphone subscribed (%s, %d Hz)", resp.Codec, resp.SampleRate)
	return resp.ClientID, nil
}

// Unsubscribe stops the robot stream; no callbacks run after it returns
func (m *RemoteMicrophone) Unsubscribe(ctx context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return fmt.Errorf("not subscribed")
	}

	err := m.client.UnsubscribeAudio(ctx, clientID)

	m.cancel()
	<-m.done
	m.cancel, m.done, m.id = nil, nil, ""

	// frames queued before the reply belong to the ended stream
	for {
		select {
		case <-m.client.AudioChunks:
		default:
			return err
		}
	}
}

func (m *RemoteMicrophone) pump(ctx context.Context, sampleRate int, decoders map[uint8]decode.Decoder, cb capture.BatchFunc, done chan struct{}) {
	defer close(done)
	defer func() {
		for _, d := range decoders {
			d.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.client.Done():
			return
		case chunk := <-m.client.AudioChunks:
			dec, err := decoderFor(decoders, chunk.PayloadType, sampleRate)
			if err != nil {
				log.Printf("Remote microphone: %v", err)
				continue
			}
			samples, err := dec.Decode(chunk.Data)
			if err != nil {
				log.Printf("Remote microphone: decode failed: %v", err)
				continue
			}
			cb(audio.Batch{Samples: samples, Timestamp: chunk.Timestamp})
		}
	}
}

func decoderFor(decoders map[uint8]decode.Decoder, pt uint8, sampleRate int) (decode.Decoder, error) {
	if d, ok := decoders[pt]; ok {
		return d, nil
	}

	var codec string
	switch pt {
	case protocol.PayloadTypeOpus:
		codec = audio.CodecOpus
	case protocol.PayloadTypePCM:
		codec = audio.CodecPCM
	default:
		return nil, fmt.Errorf("unknown payload type %d", pt)
	}

	d, err := decode.New(audio.Format{Codec: codec, SampleRate: sampleRate, Channels: audio.Mono, BitDepth: 16})
	if err != nil {
		return nil, err
	}
	decoders[pt] = d
	return d, nil
}
