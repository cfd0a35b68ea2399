// ABOUTME: Viewer application orchestration
// ABOUTME: Wires the robot connection, capture, playback sink, output and recorder
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/internal/client"
	"github.com/livecam/livecam-go/internal/playback"
	"github.com/livecam/livecam-go/internal/protocol"
	"github.com/livecam/livecam-go/internal/version"
	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/encode"
	"github.com/livecam/livecam-go/pkg/audio/output"
	"github.com/livecam/livecam-go/pkg/audio/ring"
)

// Config holds viewer configuration
type Config struct {
	Name     string
	ClientID string // generated when empty
	Codec    string // requested from the robot; empty lets it choose

	Backend        string
	PushModel      bool
	BufferDuration time.Duration
	Policy         ring.Policy

	CameraFPS   int // zero disables camera frames
	RecordPath  string
	AutoCapture bool

	// Output replaces the Backend device in pull mode, PushOutput in push mode
	Output     output.Output
	PushOutput io.Writer
}

// capturer is the lifecycle both playback models expose
type capturer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	IsCapturing() bool
}

type volumeSetter interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// Stats is a snapshot of everything the UI shows
type Stats struct {
	Connected  bool
	ServerName string
	Capturing  bool
	PushModel  bool

	Buffer capture.BufferStats
	Source capture.SourceStats
	Pull   playback.PullStats
	Worker playback.WorkerStats
	Client client.Stats

	CameraWidth  int
	CameraHeight int
	Recorded     time.Duration
	Volume       int
	Muted        bool
}

// Viewer is one connection to a robot with its audio pipeline
type Viewer struct {
	config Config

	mu       sync.Mutex
	client   *client.Client
	capture  capturer
	module   *capture.Module
	pull     *playback.PullSink
	worker   *playback.WorkerSink
	output   output.Output
	pushOut  io.Writer
	recorder *encode.WAVRecorder
	volume   int
	muted    bool

	cameraMu     sync.Mutex
	cameraWidth  int
	cameraHeight int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a viewer; nothing is opened until Connect
func New(config Config) *Viewer {
	if config.Name == "" {
		config.Name = "livecam-viewer"
	}
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.BufferDuration <= 0 {
		config.BufferDuration = time.Second
	}
	return &Viewer{config: config, volume: 100}
}

// Connect dials addr and builds the pipeline. Capture starts only when
// AutoCapture is set.
func (v *Viewer) Connect(ctx context.Context, addr string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.client != nil {
		return fmt.Errorf("already connected to %s", v.client.Server().Name)
	}

	c := client.NewClient(client.Config{
		ServerAddr: addr,
		ClientID:   v.config.ClientID,
		Name:       v.config.Name,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		Codecs: []string{audio.CodecOpus, audio.CodecPCM},
	})
	if err := c.Connect(ctx); err != nil {
		return err
	}

	var dev capture.Device = client.NewRemoteMicrophone(c, v.config.Codec)
	if v.config.RecordPath != "" {
		rec, err := encode.NewWAVRecorder(v.config.RecordPath, audio.InputSampleRate, audio.Mono)
		if err != nil {
			c.Close()
			return fmt.Errorf("failed to open recording: %w", err)
		}
		v.recorder = rec
		dev = &recordingDevice{Device: dev, rec: rec}
		log.Printf("Recording robot audio to %s", v.config.RecordPath)
	}

	var err error
	if v.config.PushModel {
		err = v.setupPush(dev)
	} else {
		err = v.setupPull(dev)
	}
	if err != nil {
		v.closeRecorder()
		c.Close()
		return err
	}

	v.client = c
	runCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	if v.config.CameraFPS > 0 && c.Server().Camera {
		if err := c.SubscribeCamera(v.config.CameraFPS); err != nil {
			log.Printf("Camera subscribe failed: %v", err)
		}
	}

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.consumeCamera(runCtx, c)
	}()

	log.Printf("Connected to robot: %s (%s)", c.Server().Name, addr)

	if v.config.AutoCapture {
		if err := v.capture.Start(ctx); err != nil {
			log.Printf("Auto capture failed: %v", err)
		}
	}
	return nil
}

func (v *Viewer) setupPull(dev capture.Device) error {
	module, err := capture.New(dev, capture.Config{
		Name:           v.config.ClientID,
		InputRate:      audio.InputSampleRate,
		OutputRate:     audio.OutputSampleRate,
		Channel:        capture.ChannelMono,
		BufferDuration: v.config.BufferDuration,
		Policy:         v.config.Policy,
	})
	if err != nil {
		return err
	}

	out := v.config.Output
	if out == nil {
		out, err = output.New(v.config.Backend)
		if err != nil {
			return err
		}
	}

	pull := playback.NewPullSink(module.Reader())
	if err := out.Open(audio.OutputSampleRate, audio.Mono, pull); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	out.SetVolume(v.volume)
	out.SetMuted(v.muted)

	v.module = module
	v.capture = module
	v.pull = pull
	v.output = out
	return nil
}

func (v *Viewer) setupPush(dev capture.Device) error {
	out := v.config.PushOutput
	if out == nil {
		pipe, err := output.NewPipe(audio.OutputSampleRate, audio.Mono)
		if err != nil {
			return fmt.Errorf("failed to open audio pipe: %w", err)
		}
		out = pipe
	}

	worker, err := playback.NewWorkerSink(out, playback.DefaultWorkerConfig())
	if err != nil {
		return err
	}

	v.worker = worker
	v.pushOut = out
	v.capture = newPushCapture(dev, worker, v.config.ClientID)
	v.applyVolume()
	return nil
}

func (v *Viewer) consumeCamera(ctx context.Context, c *client.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			return
		case img := <-c.CameraFrames:
			v.cameraMu.Lock()
			v.cameraWidth, v.cameraHeight = img.Frame.Width, img.Frame.Height
			v.cameraMu.Unlock()
		}
	}
}

// StartCapture begins streaming robot audio to the speaker
func (v *Viewer) StartCapture(ctx context.Context) error {
	c, err := v.capturer()
	if err != nil {
		return err
	}
	return c.Start(ctx)
}

// StopCapture ends the stream; the connection stays open
func (v *Viewer) StopCapture(ctx context.Context) error {
	c, err := v.capturer()
	if err != nil {
		return err
	}
	c.Stop(ctx)
	return nil
}

// ToggleCapture flips capture on or off
func (v *Viewer) ToggleCapture(ctx context.Context) error {
	c, err := v.capturer()
	if err != nil {
		return err
	}
	if c.IsCapturing() {
		c.Stop(ctx)
		return nil
	}
	return c.Start(ctx)
}

func (v *Viewer) capturer() (capturer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return nil, client.ErrNotConnected
	}
	return v.capture, nil
}

// SetVolume sets playback volume (0-100)
func (v *Viewer) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	v.mu.Lock()
	v.volume = volume
	v.applyVolume()
	v.mu.Unlock()
}

// SetMuted sets playback mute
func (v *Viewer) SetMuted(muted bool) {
	v.mu.Lock()
	v.muted = muted
	v.applyVolume()
	v.mu.Unlock()
}

// applyVolume must hold mu
func (v *Viewer) applyVolume() {
	var target volumeSetter
	if v.output != nil {
		target = v.output
	} else if vs, ok := v.pushOut.(volumeSetter); ok {
		target = vs
	}
	if target != nil {
		target.SetVolume(v.volume)
		target.SetMuted(v.muted)
	}
}

// Done is closed when the robot connection ends; nil before Connect
func (v *Viewer) Done() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client == nil {
		return nil
	}
	return v.client.Done()
}

// Disconnect stops capture and releases every component
func (v *Viewer) Disconnect(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.client == nil {
		return
	}

	if v.capture != nil {
		v.capture.Stop(ctx)
	}
	if v.worker != nil {
		v.worker.Close()
	}
	if v.output != nil {
		v.output.Close()
	}
	if closer, ok := v.pushOut.(io.Closer); ok && v.config.PushOutput == nil {
		closer.Close()
	}
	v.closeRecorder()

	v.cancel()
	v.client.Close()
	v.wg.Wait()

	v.client, v.capture, v.module = nil, nil, nil
	v.pull, v.worker, v.output, v.pushOut = nil, nil, nil, nil
	log.Printf("Disconnected")
}

func (v *Viewer) closeRecorder() {
	if v.recorder == nil {
		return
	}
	if err := v.recorder.Close(); err != nil {
		log.Printf("Failed to finalize recording: %v", err)
	}
	v.recorder = nil
}

// Stats returns a snapshot for the UI
func (v *Viewer) Stats() Stats {
	v.mu.Lock()
	s := Stats{
		PushModel: v.config.PushModel,
		Volume:    v.volume,
		Muted:     v.muted,
	}
	c, capt, module, pull, worker, rec := v.client, v.capture, v.module, v.pull, v.worker, v.recorder
	v.mu.Unlock()

	if c == nil {
		return s
	}

	s.Connected = c.IsConnected()
	s.ServerName = c.Server().Name
	s.Client = c.Stats()
	s.Capturing = capt.IsCapturing()
	if module != nil {
		s.Buffer = module.BufferStats()
		s.Source = module.SourceStats()
	}
	if pull != nil {
		s.Pull = pull.Stats()
	}
	if worker != nil {
		s.Worker = worker.Stats()
	}
	if rec != nil {
		s.Recorded = audio.Duration(int(rec.Frames()), audio.InputSampleRate)
	}

	v.cameraMu.Lock()
	s.CameraWidth, s.CameraHeight = v.cameraWidth, v.cameraHeight
	v.cameraMu.Unlock()
	return s
}
