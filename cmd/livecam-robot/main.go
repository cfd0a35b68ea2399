// ABOUTME: Entry point for the livecam robot agent
// ABOUTME: Loads configuration, wires microphone and camera, and serves viewers
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/livecam/livecam-go/internal/config"
	"github.com/livecam/livecam-go/internal/robot"
	"github.com/livecam/livecam-go/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "livecam-robot",
	Short:   "Livecam robot agent",
	Long:    `Streams the robot microphone and camera to livecam viewers over WebSocket`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadRobot(cfgFile, cmd.Flags())
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
		cfg, err := config.LoadRobot(cfgFile, rootCmd.Flags())
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

func init() {
	defaults := config.DefaultRobot()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")

	flags := rootCmd.Flags()
	flags.Int("port", defaults.Port, "WebSocket server port")
	flags.String("name", defaults.Name, "Robot friendly name")
	flags.Bool("mdns", defaults.MDNS, "Advertise over mDNS")
	flags.Bool("debug", defaults.Debug, "Enable debug logging")
	flags.Bool("no-tui", defaults.NoTUI, "Disable TUI, use streaming logs instead")
	flags.String("log-file", defaults.LogFile, "Log file path")
	flags.String("microphone", defaults.Microphone, "Microphone backend (tone, file, malgo, portaudio)")
	flags.String("mic-file", defaults.MicFile, "Audio file for the file microphone")
	flags.Bool("camera", defaults.Camera, "Serve camera frames")
	flags.String("codec", defaults.Codec, "Default audio codec (opus, pcm)")

	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Robot) error {
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

	mic, err := robot.NewMicrophone(cfg.Microphone, cfg.MicFile)
	if err != nil {
		return err
	}

	var camera robot.Camera
	if cfg.Camera {
		camera = robot.NewPatternCamera()
	}

	log.Printf("Starting %s robot %s on port %d", version.Product, cfg.Name, cfg.Port)
	if cfg.Debug {
		log.Printf("Debug logging enabled")
	}

	srv := robot.New(robot.Config{
		Port:         cfg.Port,
		Name:         cfg.Name,
		EnableMDNS:   cfg.MDNS,
		Debug:        cfg.Debug,
		UseTUI:       useTUI,
		Microphone:   mic,
		Camera:       camera,
		DefaultCodec: cfg.Codec,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
