// ABOUTME: Malgo capture device microphone
// ABOUTME: Reads S16 mono from the default capture device through miniaudio
package robot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/livecam/livecam-go/internal/capture"
	"github.com/livecam/livecam-go/pkg/audio"
)

// MalgoMicrophone captures from the default input device
type MalgoMicrophone struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
}

// NewMalgoMicrophone creates an unopened malgo microphone
func NewMalgoMicrophone() *MalgoMicrophone {
	return &MalgoMicrophone{}
}

func (m *MalgoMicrophone) Start(ctx context.Context, sampleRate int, cb capture.BatchFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("microphone already started")
	}

	if m.malgoCtx == nil {
		mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
			log.Printf("malgo: %s", message)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = mctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = audio.Mono
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(audio.FrameSamples(sampleRate))
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			n := int(frameCount) * audio.BytesPerSample
			if n > len(pInput) {
				n = len(pInput)
			}
			cb(audio.Batch{
				Samples:   audio.BytesToSamples(pInput[:n]),
				Timestamp: time.Now().UnixMicro(),
			})
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.device = device
	log.Printf("Microphone started: %dHz mono (malgo)", sampleRate)
	return nil
}

func (m *MalgoMicrophone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

func (m *MalgoMicrophone) Name() string {
	return "Default input (malgo)"
}
