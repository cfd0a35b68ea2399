// ABOUTME: Entry point for the livecam viewer
// ABOUTME: Finds a robot, builds the capture pipeline and runs the TUI or headless loop
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/livecam/livecam-go/internal/app"
	"github.com/livecam/livecam-go/internal/config"
	"github.com/livecam/livecam-go/internal/discovery"
	"github.com/livecam/livecam-go/internal/ui"
	"github.com/livecam/livecam-go/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	discoveryTimeout = 10 * time.Second
	connectTimeout   = 10 * time.Second
	statsInterval    = 500 * time.Millisecond
	headlessInterval = 5 * time.Second
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "livecam",
	Short:   "Livecam viewer",
	Long:    `Plays a robot's microphone locally and shows its camera stream status`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadViewer(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		return run(cfg)
	},
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadViewer(cfgFile, rootCmd.Flags())
		if err != nil {
			return err
		}
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Browse for a robot over mDNS and print its address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), discoveryTimeout)
		defer cancel()

		server, err := discovery.Discover(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", server.Name, server.Addr())
		return nil
	},
}

func init() {
	defaults := config.DefaultViewer()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")

	flags := rootCmd.Flags()
	flags.String("server", defaults.Server, "Robot address host:port (skip mDNS)")
	flags.String("name", defaults.Name, "Viewer friendly name")
	flags.String("codec", defaults.Codec, "Requested audio codec (opus, pcm)")
	flags.String("backend", defaults.Backend, "Playback backend (oto, malgo, portaudio)")
	flags.Bool("push-model", defaults.PushModel, "Use the worker sink instead of the pull sink")
	flags.Int("buffer-ms", defaults.BufferMs, "Ring buffer capacity in milliseconds of output audio")
	flags.String("policy", defaults.Policy, "Overflow policy (drop-oldest-sample, drop-oldest-byte)")
	flags.Int("camera-fps", defaults.CameraFPS, "Camera frame rate, 0 disables camera")
	flags.String("record", defaults.Record, "Record captured audio to this WAV file")
	flags.Bool("auto-capture", defaults.AutoCapture, "Start capturing right after connecting")
	flags.Bool("debug", defaults.Debug, "Enable debug logging")
	flags.Bool("no-tui", defaults.NoTUI, "Disable TUI, use streaming logs instead")
	flags.String("log-file", defaults.LogFile, "Log file path")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(discoverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Viewer) error {
	useTUI := !cfg.NoTUI && term.IsTerminal(int(os.Stdout.Fd()))

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	policy, err := config.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server
	if addr == "" {
		log.Printf("Starting robot discovery...")
		dctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		server, err := discovery.Discover(dctx)
		cancel()
		if err != nil {
			return err
		}
		addr = server.Addr()
		log.Printf("Discovered robot %s at %s", server.Name, addr)
	}

	viewer := app.New(app.Config{
		Name:           cfg.Name,
		Codec:          cfg.Codec,
		Backend:        cfg.Backend,
		PushModel:      cfg.PushModel,
		BufferDuration: cfg.BufferDuration(),
		Policy:         policy,
		CameraFPS:      cfg.CameraFPS,
		RecordPath:     cfg.Record,
		AutoCapture:    cfg.AutoCapture,
	})

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	err = viewer.Connect(cctx, addr)
	cancel()
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		viewer.Disconnect(sctx)
		log.Printf("Viewer stopped")
	}()

	if useTUI {
		return runTUI(ctx, viewer)
	}
	runHeadless(ctx, viewer)
	return nil
}

func runTUI(ctx context.Context, viewer *app.Viewer) error {
	prog := ui.Run(viewer)

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ui.Feed(fctx, prog, viewer, statsInterval)

	go func() {
		select {
		case <-ctx.Done():
			log.Printf("Shutdown signal received")
		case <-viewer.Done():
			log.Printf("Robot connection closed")
		case <-fctx.Done():
			return
		}
		prog.Send(tea.Quit())
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, viewer *app.Viewer) {
	log.Printf("TUI disabled, capture is controlled by --auto-capture")

	ticker := time.NewTicker(headlessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutdown signal received")
			return
		case <-viewer.Done():
			log.Printf("Robot connection closed")
			return
		case <-ticker.C:
			logStats(viewer.Stats())
		}
	}
}

func logStats(st app.Stats) {
	log.Printf("capturing=%v buffered=%s/%s overflow=%s chunks=%s lost=%s dropped=%s rtt=%dus sync=%s",
		st.Capturing,
		humanize.IBytes(uint64(st.Buffer.Size)),
		humanize.IBytes(uint64(st.Buffer.Capacity)),
		humanize.IBytes(uint64(st.Buffer.Dropped)),
		humanize.Comma(st.Client.AudioChunks),
		humanize.Comma(st.Client.AudioLost),
		humanize.Comma(st.Client.AudioDropped),
		st.Client.RTT,
		st.Client.SyncQuality)
}
