// ABOUTME: Tests for configuration layering
// ABOUTME: Covers defaults, YAML files, env overrides and changed flags
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livecam/livecam-go/pkg/audio/ring"
	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "livecam.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadRobot_Defaults(t *testing.T) {
	cfg, err := LoadRobot("", nil)
	if err != nil {
		t.Fatalf("LoadRobot: %v", err)
	}
	want := DefaultRobot()
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadRobot_FileEnvFlags(t *testing.T) {
	path := writeFile(t, "port: 9000\nname: rover\nmicrophone: file\nmic_file: voice.wav\n")
	t.Setenv("LIVECAM_NAME", "env-rover")

	flags := pflag.NewFlagSet("robot", pflag.ContinueOnError)
	flags.Int("port", 8927, "")
	flags.Bool("no-tui", false, "")
	flags.String("codec", "opus", "")
	if err := flags.Parse([]string{"--no-tui", "--codec", "pcm"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := LoadRobot(path, flags)
	if err != nil {
		t.Fatalf("LoadRobot: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000 from file (flag unchanged)", cfg.Port)
	}
	if cfg.Name != "env-rover" {
		t.Errorf("Name = %q, want env override", cfg.Name)
	}
	if cfg.Microphone != "file" || cfg.MicFile != "voice.wav" {
		t.Errorf("microphone = %q %q", cfg.Microphone, cfg.MicFile)
	}
	if !cfg.NoTUI || cfg.Codec != "pcm" {
		t.Errorf("flags not applied: no_tui=%v codec=%q", cfg.NoTUI, cfg.Codec)
	}
	if !cfg.MDNS {
		t.Error("default mdns lost")
	}
}

func TestLoadRobot_MissingFile(t *testing.T) {
	if _, err := LoadRobot(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadViewer(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
		check   func(t *testing.T, cfg Viewer)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg Viewer) {
				if cfg.BufferDuration() != time.Second {
					t.Errorf("BufferDuration = %v", cfg.BufferDuration())
				}
				if cfg.Policy != ring.DropOldestSample.String() {
					t.Errorf("Policy = %q", cfg.Policy)
				}
			},
		},
		{
			name: "file",
			file: "server: 10.0.0.5:8927\npush_model: true\nbuffer_ms: 250\npolicy: drop-oldest-byte\n",
			check: func(t *testing.T, cfg Viewer) {
				if cfg.Server != "10.0.0.5:8927" || !cfg.PushModel {
					t.Errorf("cfg = %+v", cfg)
				}
				if cfg.BufferDuration() != 250*time.Millisecond {
					t.Errorf("BufferDuration = %v", cfg.BufferDuration())
				}
			},
		},
		{name: "bad policy", file: "policy: drop-newest\n", wantErr: true},
		{name: "zero buffer", file: "buffer_ms: 0\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			cfg, err := LoadViewer(path, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadViewer: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want ring.Policy
		err  bool
	}{
		{"", ring.DropOldestSample, false},
		{"drop-oldest-sample", ring.DropOldestSample, false},
		{"drop-oldest-byte", ring.DropOldestByte, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParsePolicy(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	out, err := Dump(DefaultViewer())
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	for _, key := range []string{"buffer_ms: 1000", "policy: drop-oldest-sample", "push_model: false"} {
		if !strings.Contains(out, key) {
			t.Errorf("dump missing %q:\n%s", key, out)
		}
	}
}
