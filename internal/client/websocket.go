// ABOUTME: WebSocket client for the livecam protocol
// ABOUTME: Handles connection, handshake, clock sync and message routing
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livecam/livecam-go/internal/protocol"
	internalsync "github.com/livecam/livecam-go/internal/sync"
)

// ErrNotConnected is returned when sending on a closed client
var ErrNotConnected = errors.New("client: not connected")

const (
	handshakeTimeout = 5 * time.Second
	replyTimeout     = 5 * time.Second
	writeTimeout     = 10 * time.Second
	syncInterval     = time.Second
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	DeviceInfo protocol.DeviceInfo
	Codecs     []string
}

// AudioChunk is one depacketized audio frame
type AudioChunk struct {
	Timestamp   int64 // microseconds, robot clock
	PayloadType uint8
	Data        []byte
}

// CameraImage is one decoded camera frame
type CameraImage struct {
	Timestamp int64
	Frame     protocol.CameraFrame
}

// Stats summarizes the connection
type Stats struct {
	AudioChunks  int64
	AudioLost    int64
	AudioDropped int64
	CameraFrames int64
	Latency      time.Duration
	Offset       int64
	RTT          int64
	SyncQuality  internalsync.Quality
}

// Client is the viewer end of a robot connection
type Client struct {
	config Config
	conn   *websocket.Conn

	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	server    protocol.ServerHello

	// Message channels
	AudioChunks  chan AudioChunk
	CameraFrames chan CameraImage

	subscribed   chan protocol.AudioSubscribed
	unsubscribed chan protocol.AudioUnsubscribed
	errors       chan protocol.ServerError

	clock  *internalsync.ClockSync
	depack protocol.Depacketizer

	audioChunks  atomic.Int64
	audioDropped atomic.Int64
	cameraFrames atomic.Int64
	latency      atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:       config,
		AudioChunks:  make(chan AudioChunk, 100),
		CameraFrames: make(chan CameraImage, 2),
		subscribed:   make(chan protocol.AudioSubscribed, 1),
		unsubscribed: make(chan protocol.AudioUnsubscribed, 1),
		errors:       make(chan protocol.ServerError, 4),
		clock:        internalsync.NewClockSync(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Connect dials the robot and performs the handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: protocol.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	go c.syncLoop()

	return nil
}

func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    protocol.Version,
		DeviceInfo: &c.config.DeviceInfo,
		Codecs:     c.config.Codecs,
	}
	if err := c.send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch env.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var e protocol.ServerError
		env.Decode(&e)
		return fmt.Errorf("robot rejected hello: %s", e.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}

	var server protocol.ServerHello
	if err := env.Decode(&server); err != nil {
		return fmt.Errorf("failed to decode server/hello: %w", err)
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()

	log.Printf("Handshake complete with robot %s (%d Hz, camera: %v)", server.Name, server.SampleRate, server.Camera)
	return nil
}

// send writes one JSON message; gorilla allows one concurrent writer
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	data, err := json.Marshal(protocol.Message{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

func (c *Client) handleBinaryMessage(data []byte) {
	frame, err := protocol.DecodeBinary(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}

	switch frame.Type {
	case protocol.BinaryAudio:
		payload, pt, err := c.depack.Unpack(frame.Payload)
		if err != nil {
			log.Printf("Dropping audio frame: %v", err)
			return
		}
		c.audioChunks.Add(1)
		c.latency.Store(int64(c.clock.Latency(frame.Timestamp)))

		select {
		case c.AudioChunks <- AudioChunk{Timestamp: frame.Timestamp, PayloadType: pt, Data: payload}:
		default:
			c.audioDropped.Add(1)
		}

	case protocol.BinaryCamera:
		img, err := protocol.DecodeCamera(frame.Payload)
		if err != nil {
			log.Printf("Dropping camera frame: %v", err)
			return
		}
		c.cameraFrames.Add(1)

		// keep only the newest frames
		select {
		case c.CameraFrames <- CameraImage{Timestamp: frame.Timestamp, Frame: img}:
		default:
		}

	default:
		log.Printf("Unknown binary message type: %d", frame.Type)
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch env.Type {
	case protocol.TypeServerTime:
		t4 := internalsync.ClientMicros()
		var st protocol.ServerTime
		if err := env.Decode(&st); err != nil {
			log.Printf("Bad server/time: %v", err)
			return
		}
		c.clock.ProcessSyncResponse(st.ClientTransmitted, st.ServerReceived, st.ServerTransmitted, t4)

	case protocol.TypeAudioSubscribed:
		var msg protocol.AudioSubscribed
		if err := env.Decode(&msg); err == nil {
			deliver(c.subscribed, msg)
		}

	case protocol.TypeAudioUnsubscribed:
		var msg protocol.AudioUnsubscribed
		if err := env.Decode(&msg); err == nil {
			deliver(c.unsubscribed, msg)
		}

	case protocol.TypeServerError:
		var msg protocol.ServerError
		if err := env.Decode(&msg); err == nil {
			log.Printf("Robot error for %s: %s", msg.Request, msg.Message)
			deliver(c.errors, msg)
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// deliver replaces a stale unread reply instead of blocking the reader
func deliver[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// syncLoop sends client/time every second until closed
func (c *Client) syncLoop() {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		if err := c.SendTimeSync(internalsync.ClientMicros()); err != nil {
			return
		}
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.clock.CheckQuality()
		}
	}
}

// SendTimeSync sends a client/time message
func (c *Client) SendTimeSync(t1 int64) error {
	return c.send(protocol.TypeClientTime, protocol.ClientTime{ClientTransmitted: t1})
}

// SubscribeAudio requests the microphone stream and waits for the reply
func (c *Client) SubscribeAudio(ctx context.Context, req protocol.AudioSubscribe) (protocol.AudioSubscribed, error) {
	c.drainReplies()
	c.depack.Reset()

	if err := c.send(protocol.TypeAudioSubscribe, req); err != nil {
		return protocol.AudioSubscribed{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	for {
		select {
		case resp := <-c.subscribed:
			return resp, nil
		case e := <-c.errors:
			if e.Request == protocol.TypeAudioSubscribe {
				return protocol.AudioSubscribed{}, fmt.Errorf("subscribe rejected: %s", e.Message)
			}
		case <-c.ctx.Done():
			return protocol.AudioSubscribed{}, ErrNotConnected
		case <-ctx.Done():
			return protocol.AudioSubscribed{}, fmt.Errorf("waiting for audio/subscribed: %w", ctx.Err())
		}
	}
}

// UnsubscribeAudio ends the microphone stream and waits for the reply
func (c *Client) UnsubscribeAudio(ctx context.Context, id string) error {
	if err := c.send(protocol.TypeAudioUnsubscribe, protocol.AudioUnsubscribe{ClientID: id}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	for {
		select {
		case <-c.unsubscribed:
			return nil
		case e := <-c.errors:
			if e.Request == protocol.TypeAudioUnsubscribe {
				return fmt.Errorf("unsubscribe rejected: %s", e.Message)
			}
		case <-c.ctx.Done():
			return ErrNotConnected
		case <-ctx.Done():
			return fmt.Errorf("waiting for audio/unsubscribed: %w", ctx.Err())
		}
	}
}

func (c *Client) drainReplies() {
	for {
		select {
		case <-c.subscribed:
		case <-c.unsubscribed:
		case <-c.errors:
		default:
			return
		}
	}
}

// SubscribeCamera asks for camera frames at fps
func (c *Client) SubscribeCamera(fps int) error {
	return c.send(protocol.TypeCameraSubscribe, protocol.CameraSubscribe{FPS: fps})
}

// UnsubscribeCamera stops camera frames
func (c *Client) UnsubscribeCamera() error {
	return c.send(protocol.TypeCameraUnsubscribe, protocol.CameraUnsubscribe{})
}

// Server returns the robot's hello
func (c *Client) Server() protocol.ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// Stats returns connection counters
func (c *Client) Stats() Stats {
	offset, rtt, quality := c.clock.GetStats()
	return Stats{
		AudioChunks:  c.audioChunks.Load(),
		AudioLost:    c.depack.Lost(),
		AudioDropped: c.audioDropped.Load(),
		CameraFrames: c.cameraFrames.Load(),
		Latency:      time.Duration(c.latency.Load()),
		Offset:       offset,
		RTT:          rtt,
		SyncQuality:  quality,
	}
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
