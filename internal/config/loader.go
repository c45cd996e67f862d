package config

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
var ValidProviderNames = map[string][]string{
	"vision": {"chat", "multipart", "openai", "anthropic", "gemini", "mistral", "ollama", "llamafile"},
	"audio":  {"portaudio"},
}

// keylessVisionProviders talk to a local inference server and need no API key.
var keylessVisionProviders = []string{"ollama", "llamafile"}

// Parse decodes YAML from r over [Defaults] without applying the environment
// or validating. Unknown fields are rejected and an empty document yields the
// defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Capture
	if cfg.Capture.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("capture.interval_seconds must be positive, got %d", cfg.Capture.IntervalSeconds))
	}
	if cfg.Capture.OutputDir == "" {
		errs = append(errs, errors.New("capture.output_dir is required"))
	}
	if cfg.Capture.Display < 0 {
		errs = append(errs, fmt.Errorf("capture.display must not be negative, got %d", cfg.Capture.Display))
	}

	// Vision
	if err := validateProviderName("vision", cfg.Vision.Name); err != nil {
		errs = append(errs, err)
	}
	if cfg.Vision.APIKey == "" && !slices.Contains(keylessVisionProviders, cfg.Vision.Name) {
		errs = append(errs, errors.New("vision.api_key is required (or set OPENAI_API_KEY)"))
	}
	if cfg.Vision.Name == "multipart" && cfg.Vision.BaseURL == "" {
		errs = append(errs, errors.New("vision.base_url is required for the multipart provider"))
	}
	if cfg.Vision.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("vision.max_tokens must not be negative, got %d", cfg.Vision.MaxTokens))
	}

	// Audio
	if cfg.Audio.Enabled {
		if err := validateProviderName("audio", cfg.Audio.Source); err != nil {
			errs = append(errs, err)
		}
		if !cfg.Audio.DeviceMode.IsValid() {
			errs = append(errs, fmt.Errorf("audio.device_mode %q is invalid; valid values: auto, interactive", cfg.Audio.DeviceMode))
		}
		if cfg.Audio.RotationSeconds <= 0 {
			errs = append(errs, fmt.Errorf("audio.rotation_seconds must be positive, got %d", cfg.Audio.RotationSeconds))
		}
		if cfg.Audio.MaxSamples <= 0 {
			errs = append(errs, fmt.Errorf("audio.max_samples must be positive, got %d", cfg.Audio.MaxSamples))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName reports an error if name is not found in the
// [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) error {
	known := ValidProviderNames[kind]
	if slices.Contains(known, name) {
		return nil
	}
	return fmt.Errorf("%s provider %q is unknown; valid values: %v", kind, name, known)
}
