// ABOUTME: Robot and viewer configuration
// ABOUTME: Defaults, then an optional YAML file, then LIVECAM_* env vars, then flags
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/livecam/livecam-go/pkg/audio/ring"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "LIVECAM"

// Robot configures the robot agent
type Robot struct {
	Port       int    `mapstructure:"port" yaml:"port"`
	Name       string `mapstructure:"name" yaml:"name"`
	MDNS       bool   `mapstructure:"mdns" yaml:"mdns"`
	Debug      bool   `mapstructure:"debug" yaml:"debug"`
	NoTUI      bool   `mapstructure:"no_tui" yaml:"no_tui"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	Microphone string `mapstructure:"microphone" yaml:"microphone"`
	MicFile    string `mapstructure:"mic_file" yaml:"mic_file"`
	Camera     bool   `mapstructure:"camera" yaml:"camera"`
	Codec      string `mapstructure:"codec" yaml:"codec"`
}

// Viewer configures the viewer
type Viewer struct {
	Server      string `mapstructure:"server" yaml:"server"`
	Name        string `mapstructure:"name" yaml:"name"`
	Codec       string `mapstructure:"codec" yaml:"codec"`
	Backend     string `mapstructure:"backend" yaml:"backend"`
	PushModel   bool   `mapstructure:"push_model" yaml:"push_model"`
	BufferMs    int    `mapstructure:"buffer_ms" yaml:"buffer_ms"`
	Policy      string `mapstructure:"policy" yaml:"policy"`
	CameraFPS   int    `mapstructure:"camera_fps" yaml:"camera_fps"`
	Record      string `mapstructure:"record" yaml:"record"`
	AutoCapture bool   `mapstructure:"auto_capture" yaml:"auto_capture"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
	NoTUI       bool   `mapstructure:"no_tui" yaml:"no_tui"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultRobot returns the robot defaults
func DefaultRobot() Robot {
	return Robot{
		Port:       8927,
		Name:       defaultName("robot"),
		MDNS:       true,
		LogFile:    "livecam-robot.log",
		Microphone: "tone",
		Camera:     true,
		Codec:      "opus",
	}
}

// DefaultViewer returns the viewer defaults
func DefaultViewer() Viewer {
	return Viewer{
		Name:      defaultName("viewer"),
		Backend:   "oto",
		BufferMs:  1000,
		Policy:    ring.DropOldestSample.String(),
		CameraFPS: 10,
		LogFile:   "livecam-viewer.log",
	}
}

func defaultName(role string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-livecam-%s", hostname, role)
}

// LoadRobot layers path (optional), env and changed flags over the defaults
func LoadRobot(path string, flags *pflag.FlagSet) (Robot, error) {
	cfg := DefaultRobot()
	err := load(path, flags, &cfg)
	return cfg, err
}

// LoadViewer layers path (optional), env and changed flags over the defaults
func LoadViewer(path string, flags *pflag.FlagSet) (Viewer, error) {
	cfg := DefaultViewer()
	if err := load(path, flags, &cfg); err != nil {
		return cfg, err
	}
	if cfg.BufferMs <= 0 {
		return cfg, fmt.Errorf("buffer_ms must be positive, got %d", cfg.BufferMs)
	}
	if _, err := ParsePolicy(cfg.Policy); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// load seeds viper with target's current values so every key exists
// before the file, env and flag layers are applied.
func load(path string, flags *pflag.FlagSet, target interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(target)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file %s not found", path)
			}
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			// unchanged flags must not mask file or env values
			if !f.Changed || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Dump renders cfg as YAML
func Dump(cfg interface{}) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParsePolicy maps a policy name to a ring overflow policy
func ParsePolicy(name string) (ring.Policy, error) {
	switch name {
	case "", ring.DropOldestSample.String():
		return ring.DropOldestSample, nil
	case ring.DropOldestByte.String():
		return ring.DropOldestByte, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q (want %q or %q)",
			name, ring.DropOldestSample.String(), ring.DropOldestByte.String())
	}
}

// BufferDuration returns BufferMs as a duration
func (v Viewer) BufferDuration() time.Duration {
	return time.Duration(v.BufferMs) * time.Millisecond
}
