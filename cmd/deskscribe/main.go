// Command deskscribe periodically screenshots the desktop, asks a vision
// model to describe it and stores the description next to the image, while
// recording the microphone into rolling WAV segments.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/deskscribe/internal/app"
	"github.com/MrWong99/deskscribe/internal/config"
	"github.com/MrWong99/deskscribe/internal/observe"
	"github.com/MrWong99/deskscribe/pkg/audio"
	"github.com/MrWong99/deskscribe/pkg/audio/portaudio"
	"github.com/MrWong99/deskscribe/pkg/capture"
)

var version = "0.1.0"

var (
	cfgFile string
	envFile string
	once    bool
)

var rootCmd = &cobra.Command{
	Use:   "deskscribe",
	Short: "Describe what is on screen, every minute",
	Long: `deskscribe captures a screenshot at a fixed interval, sends it to a vision
model and writes the returned description beside the PNG. A background
recorder keeps rolling 60 second WAV segments of the microphone.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAgent(cmd.Context())
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listDevices(cmd.OutOrStdout())
	},
}

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List displays available for capture",
	Run: func(cmd *cobra.Command, _ []string) {
		for i, b := range capture.Displays() {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %dx%d at (%d,%d)\n", i, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deskscribe v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file; environment variables override it")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "KEY=VALUE file loaded into the environment if present")
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single capture iteration and exit")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(displaysCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "deskscribe: %v\n", err)
		os.Exit(1)
	}
}

func runAgent(ctx context.Context) error {
	// ── Configuration ─────────────────────────────────────────────────────────
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return err
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("deskscribe starting",
		"version", version,
		"config", cfgFile,
		"provider", cfg.Vision.Name,
		"interval", cfg.Capture.Interval(),
		"output_dir", cfg.Capture.OutputDir,
		"audio", cfg.Audio.Enabled,
		"listen_addr", cfg.Server.ListenAddr,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, closeProviders, err := buildProviders(cfg, reg, once)
	if err != nil {
		return err
	}
	defer closeProviders()

	application, err := app.New(cfg, providers,
		app.WithRegistry(reg),
		app.WithPrompt(audio.Prompt{In: os.Stdin, Out: os.Stderr, Timeout: audio.DefaultSelectTimeout}),
	)
	if err != nil {
		return err
	}

	if once {
		res, err := application.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Println(res.DescriptionPath)
		return nil
	}

	// ── Hot reload ────────────────────────────────────────────────────────────
	if cfgFile != "" {
		w, err := config.NewWatcher(cfgFile, func(prev, next *config.Config) {
			applyConfigChange(application, &level, prev, next)
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	slog.Info("agent ready, press Ctrl+C to stop")
	runErr := application.Run(ctx)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}

func listDevices(w io.Writer) error {
	src, err := portaudio.New()
	if err != nil {
		return err
	}
	defer src.Close()

	devices, err := src.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "no audio input devices found")
		return nil
	}
	audio.WriteDeviceList(w, devices)
	return nil
}

// slogLevel maps a config log level to slog; unknown values mean info.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// reloader is the part of *app.App the config watcher drives.
type reloader interface {
	Reload(config.ConfigDiff) error
}

// applyConfigChange applies a watched config edit. Edits that change nothing
// the agent tracks (comments, formatting) are ignored.
func applyConfigChange(r reloader, level *slog.LevelVar, prev, next *config.Config) {
	d := config.Diff(prev, next)
	if !d.Changed() {
		slog.Debug("config file rewritten without effective changes")
		return
	}
	if d.LogLevelChanged {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if err := r.Reload(d); err != nil {
		slog.Error("config reload failed", "err", err)
	}
}
