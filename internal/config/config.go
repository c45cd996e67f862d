// Package config provides the configuration schema, loader, and provider registry
// for the deskscribe agent.
//
// Configuration is assembled in layers: built-in [Defaults], an optional YAML
// file, then environment variables (see env.go). The environment always wins
// so that the agent can run from a bare .env file without any YAML.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DeviceMode selects how the audio input device is chosen.
type DeviceMode string

const (
	// DeviceAuto records from the system default input device.
	DeviceAuto DeviceMode = "auto"

	// DeviceInteractive prompts on the terminal with a timeout.
	DeviceInteractive DeviceMode = "interactive"
)

// IsValid reports whether m is a recognised device mode.
func (m DeviceMode) IsValid() bool {
	return m == DeviceAuto || m == DeviceInteractive
}

const (
	// DefaultIntervalSeconds is the pause between two capture iterations.
	DefaultIntervalSeconds = 60

	// DefaultOutputDir receives screenshots, descriptions and audio segments.
	DefaultOutputDir = "output"

	// DefaultRotationSeconds is the audio segment length.
	DefaultRotationSeconds = 60

	// DefaultMaxSamples caps the samples taken from one audio callback.
	DefaultMaxSamples = 44100

	// DefaultVisionProvider is the registry name used when none is configured.
	DefaultVisionProvider = "chat"

	// DefaultAudioSource is the registry name of the audio backend.
	DefaultAudioSource = "portaudio"
)

// Config is the root configuration structure.
// It is typically produced by [Resolve].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Vision  ProviderEntry `yaml:"vision"`
	Audio   AudioConfig   `yaml:"audio"`
}

// ServerConfig holds the optional status listener and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address for /healthz, /readyz and /metrics
	// (e.g., "127.0.0.1:9464"). Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// CaptureConfig controls the screenshot loop.
type CaptureConfig struct {
	// IntervalSeconds is the sleep between iterations.
	IntervalSeconds int `yaml:"interval_seconds"`

	// OutputDir is created on first capture if missing.
	OutputDir string `yaml:"output_dir"`

	// Display selects the monitor by index; 0 is the primary display.
	Display int `yaml:"display"`

	// WindowInfo prefixes each description with the foreground window block.
	WindowInfo bool `yaml:"window_info"`
}

// Interval returns IntervalSeconds as a duration.
func (c CaptureConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ProviderEntry configures the vision provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation: "chat",
	// "multipart", "openai", or one of the any-llm backends ("anthropic",
	// "gemini", "mistral", "ollama", "llamafile").
	Name string `yaml:"name"`

	// APIKey is the bearer credential. Required except for the local
	// backends (ollama, llamafile).
	APIKey string `yaml:"api_key"`

	// BaseURL is the endpoint. For "chat" and "multipart" it is the full
	// request URL, for "openai" the SDK base URL. Empty selects the
	// provider's default where one exists.
	BaseURL string `yaml:"base_url"`

	// Model selects the vision model.
	Model string `yaml:"model"`

	// Prompt is sent with every image.
	Prompt string `yaml:"prompt"`

	// MaxTokens caps the description length. 0 uses the provider default.
	MaxTokens int `yaml:"max_tokens"`
}

// AudioConfig controls the background recorder.
type AudioConfig struct {
	// Enabled starts the recorder alongside the capture loop.
	Enabled bool `yaml:"enabled"`

	// Source selects the registered audio backend.
	Source string `yaml:"source"`

	// DeviceMode is "auto" or "interactive".
	DeviceMode DeviceMode `yaml:"device_mode"`

	// RotationSeconds is the segment length.
	RotationSeconds int `yaml:"rotation_seconds"`

	// MaxSamples caps the samples written per callback.
	MaxSamples int `yaml:"max_samples"`

	// Downmix averages multi-channel input into mono segments.
	Downmix bool `yaml:"downmix"`
}

// Rotation returns RotationSeconds as a duration.
func (a AudioConfig) Rotation() time.Duration {
	return time.Duration(a.RotationSeconds) * time.Second
}

// Defaults returns a Config populated with built-in defaults. It is the base
// every file and environment layer is applied on top of.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Capture: CaptureConfig{
			IntervalSeconds: DefaultIntervalSeconds,
			OutputDir:       DefaultOutputDir,
		},
		Vision: ProviderEntry{
			Name: DefaultVisionProvider,
		},
		Audio: AudioConfig{
			Enabled:         true,
			Source:          DefaultAudioSource,
			DeviceMode:      DeviceAuto,
			RotationSeconds: DefaultRotationSeconds,
			MaxSamples:      DefaultMaxSamples,
		},
	}
}
