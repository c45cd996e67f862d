package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Environment variable names. The unprefixed ones keep the names existing
// deployments already export.
const (
	EnvInterval       = "SCREENSHOT_INTERVAL"
	EnvOutputFolder   = "OUTPUT_FOLDER"
	EnvEndpoint       = "OPENAI_API_ENDPOINT"
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvModel          = "MODEL"
	EnvPrompt         = "AI_VISION_PROMPT"
	EnvLogLevel       = "DESKSCRIBE_LOG_LEVEL"
	EnvListenAddr     = "DESKSCRIBE_LISTEN_ADDR"
	EnvVisionProvider = "DESKSCRIBE_VISION_PROVIDER"
	EnvDeviceMode     = "DESKSCRIBE_AUDIO_DEVICE_MODE"
	EnvAudioEnabled   = "DESKSCRIBE_AUDIO"
	EnvWindowInfo     = "DESKSCRIBE_WINDOW_INFO"
)

// envBindings maps viper keys to environment variables.
var envBindings = map[string]string{
	"capture.interval_seconds": EnvInterval,
	"capture.output_dir":       EnvOutputFolder,
	"capture.window_info":      EnvWindowInfo,
	"vision.base_url":          EnvEndpoint,
	"vision.api_key":           EnvAPIKey,
	"vision.model":             EnvModel,
	"vision.prompt":            EnvPrompt,
	"vision.name":              EnvVisionProvider,
	"server.log_level":         EnvLogLevel,
	"server.listen_addr":       EnvListenAddr,
	"audio.device_mode":        EnvDeviceMode,
	"audio.enabled":            EnvAudioEnabled,
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left untouched, and a missing file is
// not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// newEnv returns a viper instance with every supported variable bound.
func newEnv() *viper.Viper {
	v := viper.New()
	for key, env := range envBindings {
		// BindEnv only fails without arguments.
		_ = v.BindEnv(key, env)
	}
	return v
}

// ApplyEnv overlays set, non-empty environment variables onto cfg. Numeric
// and boolean values that cannot be parsed are reported as errors.
func ApplyEnv(cfg *Config) error {
	v := newEnv()
	var errs []error

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if !v.IsSet(key) {
			return
		}
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", envBindings[key], v.GetString(key)))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		if !v.IsSet(key) {
			return
		}
		b, err := cast.ToBoolE(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", envBindings[key], v.GetString(key)))
			return
		}
		*dst = b
	}

	num("capture.interval_seconds", &cfg.Capture.IntervalSeconds)
	str("capture.output_dir", &cfg.Capture.OutputDir)
	flag("capture.window_info", &cfg.Capture.WindowInfo)

	str("vision.name", &cfg.Vision.Name)
	str("vision.base_url", &cfg.Vision.BaseURL)
	str("vision.api_key", &cfg.Vision.APIKey)
	str("vision.model", &cfg.Vision.Model)
	str("vision.prompt", &cfg.Vision.Prompt)

	var level, mode string
	str("server.log_level", &level)
	if level != "" {
		cfg.Server.LogLevel = LogLevel(level)
	}
	str("server.listen_addr", &cfg.Server.ListenAddr)

	str("audio.device_mode", &mode)
	if mode != "" {
		cfg.Audio.DeviceMode = DeviceMode(mode)
	}
	flag("audio.enabled", &cfg.Audio.Enabled)

	return errors.Join(errs...)
}

// Resolve builds the effective configuration: defaults, then the YAML file
// at path (skipped when path is empty), then the environment. The result is
// validated.
func Resolve(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	return finish(cfg)
}

// ResolveBytes is Resolve for file contents already in memory. The config
// watcher uses it so reloaded files get the same environment overlay.
func ResolveBytes(data []byte) (*Config, error) {
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	if err := ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	slog.Debug("config resolved",
		"provider", cfg.Vision.Name,
		"interval", cfg.Capture.Interval(),
		"output_dir", cfg.Capture.OutputDir,
		"audio", cfg.Audio.Enabled,
	)
	return cfg, nil
}
