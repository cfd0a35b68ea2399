// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int16 samples to little-endian 16-bit PCM bytes
package encode

import (
	"fmt"

	"github.com/livecam/livecam-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct{}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &PCMEncoder{}, nil
}

// Encode converts int16 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int16) ([]byte, error) {
	return audio.SamplesToBytes(samples), nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
