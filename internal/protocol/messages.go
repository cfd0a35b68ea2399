// ABOUTME: Livecam protocol message type definitions
// ABOUTME: Defines structs for all JSON message types exchanged over /livecam
package protocol

import (
	"encoding/json"
	"fmt"
)

// Path is the websocket endpoint served by the robot
const Path = "/livecam"

// Version is the protocol version sent in hello messages
const Version = 1

// Message types
const (
	TypeClientHello       = "client/hello"
	TypeServerHello       = "server/hello"
	TypeAudioSubscribe    = "audio/subscribe"
	TypeAudioSubscribed   = "audio/subscribed"
	TypeAudioUnsubscribe  = "audio/unsubscribe"
	TypeAudioUnsubscribed = "audio/unsubscribed"
	TypeCameraSubscribe   = "camera/subscribe"
	TypeCameraUnsubscribe = "camera/unsubscribe"
	TypeClientTime        = "client/time"
	TypeServerTime        = "server/time"
	TypeServerError       = "server/error"
)

// Message is the top-level wrapper for all outgoing protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is an incoming message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEnvelope reads the type of a text frame
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("message has no type")
	}
	return env, nil
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", e.Type, err)
	}
	return nil
}

// ClientHello is sent by viewers to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
	Codecs     []string    `json:"codecs,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the robot's response to client/hello
type ServerHello struct {
	ServerID   string `json:"server_id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Camera     bool   `json:"camera"`
}

// AudioSubscribe asks the robot to start streaming microphone audio
type AudioSubscribe struct {
	ClientID    string `json:"client_id"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	Interleaved bool   `json:"interleaved"`
	Codec       string `json:"codec,omitempty"`
}

// AudioSubscribed confirms a subscription
type AudioSubscribed struct {
	ClientID   string `json:"client_id"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
}

// AudioUnsubscribe ends a subscription
type AudioUnsubscribe struct {
	ClientID string `json:"client_id"`
}

// AudioUnsubscribed confirms an unsubscribe
type AudioUnsubscribed struct {
	ClientID string `json:"client_id"`
}

// CameraSubscribe asks for camera frames at fps
type CameraSubscribe struct {
	FPS int `json:"fps"`
}

// CameraUnsubscribe stops camera frames
type CameraUnsubscribe struct{}

// ClientTime is sent for clock synchronization
type ClientTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // Client timestamp in microseconds
}

// ServerTime is the response to client/time
type ServerTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // Echoed client timestamp
	ServerReceived    int64 `json:"server_received"`    // Server receive timestamp
	ServerTransmitted int64 `json:"server_transmitted"` // Server send timestamp
}

// ServerError reports a rejected request
type ServerError struct {
	Request string `json:"request"`
	Message string `json:"message"`
}
