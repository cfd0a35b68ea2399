// ABOUTME: Robot agent websocket server
// ABOUTME: Manages viewer connections, audio subscriptions, camera streams and clock sync
package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/livecam/livecam-go/internal/discovery"
	"github.com/livecam/livecam-go/internal/protocol"
	"github.com/livecam/livecam-go/pkg/audio"
)

const (
	sendQueueSize    = 100
	writeDeadline    = 10 * time.Second
	pingInterval     = 30 * time.Second
	helloTimeout     = 10 * time.Second
	defaultCameraFPS = 10
	maxCameraFPS     = 30
)

// Config holds server configuration
type Config struct {
	Port         int
	Name         string
	EnableMDNS   bool
	Debug        bool
	UseTUI       bool
	Microphone   Microphone
	Camera       Camera // nil disables camera/subscribe
	SampleRate   int
	DefaultCodec string
}

// Server is the robot side of the livecam protocol
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Server clock (monotonic microseconds)
	clockStart time.Time

	audioEngine *AudioEngine
	mdnsManager *discovery.Manager

	tui       *RobotTUI
	startTime time.Time

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is one connected viewer
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	sendChan chan interface{}
	done     chan struct{}

	mu           sync.RWMutex
	audioCodec   string
	cameraCancel context.CancelFunc
}

func (c *Client) setAudio(codec string) {
	c.mu.Lock()
	c.audioCodec = codec
	c.mu.Unlock()
}

// New creates a new server instance
func New(config Config) *Server {
	if config.SampleRate == 0 {
		config.SampleRate = audio.InputSampleRate
	}
	if config.DefaultCodec == "" {
		config.DefaultCodec = audio.CodecOpus
	}
	if config.Microphone == nil {
		config.Microphone = NewToneMicrophone(440)
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Robots serve trusted local networks; viewers are not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[string]*Client),
		clockStart: time.Now(),
		startTime:  time.Now(),
		stopChan:   make(chan struct{}),
	}
	s.audioEngine = NewAudioEngine(s, config.Microphone, config.SampleRate, config.DefaultCodec)
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop, TUI quit or a listener error
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewRobotTUI(s.config.Name, s.config.Port)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tuiLoop()
		}()
	}

	log.Printf("Robot starting: %s (ID: %s, microphone: %s)", s.config.Name, s.serverID, s.config.Microphone.Name())

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Camera:      s.config.Camera != nil,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, protocol.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Robot shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
		s.Stop()
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
		s.Stop()
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}

	s.audioEngine.Stop()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()
	log.Printf("Robot stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// closeClients drops hijacked websocket connections Shutdown does not track
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	if s.config.Debug {
		log.Printf("[DEBUG] New connection, waiting for handshake")
	}

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.Printf("Error parsing hello: %v", err)
		return
	}
	if env.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", env.Type)
		return
	}

	var hello protocol.ClientHello
	if err := env.Decode(&hello); err != nil {
		log.Printf("Error decoding client hello: %v", err)
		return
	}
	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing client_id or name")
		writeError(conn, protocol.TypeClientHello, "client_id and name are required")
		return
	}

	log.Printf("Client hello: %s (ID: %s, codecs: %v)", hello.Name, hello.ClientID, hello.Codecs)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, sendQueueSize),
		done:     make(chan struct{}),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		writeError(conn, protocol.TypeClientHello, "duplicate client_id")
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	defer func() {
		s.stopCamera(client)
		s.audioEngine.RemoveClient(client)

		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.done)
		log.Printf("Client disconnected: %s", client.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.Version,
		SampleRate: s.config.SampleRate,
		Channels:   audio.Mono,
		Camera:     s.config.Camera != nil,
	}
	if err := s.sendMessage(client, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// writeError replies on a connection that has no writer goroutine yet
func writeError(conn *websocket.Conn, request, message string) {
	msg := protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Request: request, Message: message},
	}
	if data, err := json.Marshal(msg); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// clientWriter is the only goroutine writing to the connection
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return

		case msg := <-client.sendChan:
			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleClientMessage(client *Client, data []byte) {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.Printf("Error parsing message from %s: %v", client.Name, err)
		return
	}

	switch env.Type {
	case protocol.TypeClientTime:
		s.handleTimeSync(client, env)
	case protocol.TypeAudioSubscribe:
		s.handleAudioSubscribe(client, env)
	case protocol.TypeAudioUnsubscribe:
		s.handleAudioUnsubscribe(client, env)
	case protocol.TypeCameraSubscribe:
		s.handleCameraSubscribe(client, env)
	case protocol.TypeCameraUnsubscribe:
		s.stopCamera(client)
	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

func (s *Server) handleAudioSubscribe(client *Client, env protocol.Envelope) {
	var req protocol.AudioSubscribe
	if err := env.Decode(&req); err != nil {
		s.sendError(client, env.Type, err.Error())
		return
	}

	err := s.audioEngine.Subscribe(client, req, func(resp protocol.AudioSubscribed) {
		if err := s.sendMessage(client, protocol.TypeAudioSubscribed, resp); err != nil {
			log.Printf("Error sending audio/subscribed: %v", err)
		}
	})
	if err != nil {
		log.Printf("Subscribe from %s rejected: %v", client.Name, err)
		s.sendError(client, env.Type, err.Error())
	}
}

func (s *Server) handleAudioUnsubscribe(client *Client, env protocol.Envelope) {
	var req protocol.AudioUnsubscribe
	if err := env.Decode(&req); err != nil {
		s.sendError(client, env.Type, err.Error())
		return
	}

	if err := s.audioEngine.Unsubscribe(client, req.ClientID); err != nil {
		s.sendError(client, env.Type, err.Error())
		return
	}

	if err := s.sendMessage(client, protocol.TypeAudioUnsubscribed, protocol.AudioUnsubscribed(req)); err != nil {
		log.Printf("Error sending audio/unsubscribed: %v", err)
	}
}

// handleTimeSync responds to time synchronization requests
func (s *Server) handleTimeSync(client *Client, env protocol.Envelope) {
	serverRecv := s.getClockMicros()

	var clientTime protocol.ClientTime
	if err := env.Decode(&clientTime); err != nil {
		log.Printf("Error decoding client time: %v", err)
		return
	}

	// t3 is the queue time, not the wire time
	serverSend := s.getClockMicros()

	if s.config.Debug {
		log.Printf("[DEBUG] Time sync for %s: t1=%d, t2=%d, t3=%d",
			client.Name, clientTime.ClientTransmitted, serverRecv, serverSend)
	}

	response := protocol.ServerTime{
		ClientTransmitted: clientTime.ClientTransmitted,
		ServerReceived:    serverRecv,
		ServerTransmitted: serverSend,
	}

	if err := s.sendMessage(client, protocol.TypeServerTime, response); err != nil {
		log.Printf("Error sending server time: %v", err)
	}
}

func (s *Server) sendError(client *Client, request, message string) {
	payload := protocol.ServerError{Request: request, Message: message}
	if err := s.sendMessage(client, protocol.TypeServerError, payload); err != nil {
		log.Printf("Error sending server/error: %v", err)
	}
}

// sendMessage queues a JSON message without blocking
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues a binary frame without blocking
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// getClockMicros returns the server clock in microseconds
func (s *Server) getClockMicros() int64 {
	return time.Since(s.clockStart).Microseconds()
}

// Stats summarizes server activity
type Stats struct {
	Clients     int
	Subscribers int
	MicRunning  bool
	FramesSent  int64
	Dropped     int64
}

// Stats returns a snapshot of server activity
func (s *Server) Stats() Stats {
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	return Stats{
		Clients:     clients,
		Subscribers: s.audioEngine.Subscribers(),
		MicRunning:  s.audioEngine.Running(),
		FramesSent:  s.audioEngine.framesSent.Load(),
		Dropped:     s.audioEngine.dropped.Load(),
	}
}
