// ABOUTME: RTP packetization of encoded audio frames
// ABOUTME: Each binary audio message carries one RTP packet built with pion/rtp
package protocol

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtp"
)

// Dynamic payload types for the two wire codecs
const (
	PayloadTypeOpus uint8 = 96
	PayloadTypePCM  uint8 = 97
)

// websocket frames have no MTU; one packet always holds one frame
const rtpMTU = 65535

// PayloadType maps a codec name to its RTP payload type
func PayloadType(codec string) (uint8, error) {
	switch codec {
	case "opus":
		return PayloadTypeOpus, nil
	case "pcm":
		return PayloadTypePCM, nil
	default:
		return 0, fmt.Errorf("no payload type for codec %s", codec)
	}
}

// wholePayloader never splits a frame
type wholePayloader struct{}

func (wholePayloader) Payload(mtu uint16, payload []byte) [][]byte {
	if len(payload) == 0 {
		return nil
	}
	return [][]byte{payload}
}

// Packetizer stamps frames for one audio subscription
type Packetizer struct {
	packetizer rtp.Packetizer
}

// NewPacketizer creates a packetizer; clockRate is the codec sample rate
func NewPacketizer(payloadType uint8, clockRate uint32) *Packetizer {
	return &Packetizer{
		packetizer: rtp.NewPacketizer(
			rtpMTU,
			payloadType,
			uint32(time.Now().UnixNano()&0xFFFFFFFF),
			wholePayloader{},
			rtp.NewRandomSequencer(),
			clockRate,
		),
	}
}

// Packetize wraps one encoded frame of samples samples
func (p *Packetizer) Packetize(frame []byte, samples int) ([]byte, error) {
	packets := p.packetizer.Packetize(frame, uint32(samples))
	if len(packets) != 1 {
		return nil, fmt.Errorf("packetize produced %d packets", len(packets))
	}
	data, err := packets[0].Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RTP packet: %w", err)
	}
	return data, nil
}

// Depacketizer unwraps packets and counts sequence gaps
type Depacketizer struct {
	mu      sync.Mutex
	started bool
	lastSeq uint16
	ssrc    uint32
	lost    int64
}

// Unpack returns the payload and payload type of one packet
func (d *Depacketizer) Unpack(data []byte) ([]byte, uint8, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal RTP packet: %w", err)
	}

	d.mu.Lock()
	if d.started && pkt.SSRC == d.ssrc {
		gap := pkt.SequenceNumber - d.lastSeq - 1
		// reordered or duplicate packets show up as huge gaps
		if gap < 0x8000 {
			d.lost += int64(gap)
		}
	}
	d.started = true
	d.ssrc = pkt.SSRC
	d.lastSeq = pkt.SequenceNumber
	d.mu.Unlock()

	return pkt.Payload, pkt.PayloadType, nil
}

// Lost returns the number of packets missing from the sequence
func (d *Depacketizer) Lost() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lost
}

// Reset forgets the sequence, e.g. on resubscribe
func (d *Depacketizer) Reset() {
	d.mu.Lock()
	d.started = false
	d.mu.Unlock()
}
