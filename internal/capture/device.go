// ABOUTME: Capture device collaborator contract
// ABOUTME: Subscribe/unsubscribe to a stream of 16-bit mono batches
package capture

import (
	"context"

	"github.com/livecam/livecam-go/pkg/audio"
)

// Channel selects how many microphone channels the device delivers
type Channel int

// ChannelMono is the only selection the pipeline consumes
const ChannelMono Channel = 1

// Preferences parameterize a subscription
type Preferences struct {
	ClientID    string
	SampleRate  int
	Channels    Channel
	Interleaved bool
}

// BatchFunc receives captured batches on the device's goroutine. It must
// not block and returns nothing to the device.
type BatchFunc func(audio.Batch)

// Device delivers captured audio until unsubscribed
type Device interface {
	// Subscribe starts callbacks and returns the client ID to unsubscribe with
	Subscribe(ctx context.Context, prefs Preferences, cb BatchFunc) (string, error)

	// Unsubscribe stops callbacks for the client ID
	Unsubscribe(ctx context.Context, clientID string) error
}
