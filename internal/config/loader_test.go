package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/deskscribe/internal/config"
)

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	for _, name := range config.ValidProviderNames["vision"] {
		cfg := config.Defaults()
		cfg.Vision.Name = name
		cfg.Vision.APIKey = "sk-test"
		cfg.Vision.BaseURL = "http://localhost/describe"
		if err := config.Validate(cfg); err != nil {
			t.Errorf("vision provider %q: unexpected error: %v", name, err)
		}
	}
}

func TestValidate_LocalBackendsNeedNoAPIKey(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"ollama", "llamafile"} {
		cfg := config.Defaults()
		cfg.Vision.Name = name
		if err := config.Validate(cfg); err != nil {
			t.Errorf("vision provider %q: unexpected error: %v", name, err)
		}
	}
	cfg := config.Defaults()
	cfg.Vision.Name = "anthropic"
	if err := config.Validate(cfg); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("anthropic without api_key: got %v, want api_key error", err)
	}
}

func TestParse_DoesNotValidate(t *testing.T) {
	t.Parallel()
	cfg, err := config.Parse(strings.NewReader("server:\n  log_level: bananas\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.LogLevel != "bananas" {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
	if config.Validate(cfg) == nil {
		t.Error("expected Validate to reject the parsed config")
	}
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deskscribe.yaml")
	writeFile(t, path, `
capture:
  interval_seconds: 30
  output_dir: from-file
vision:
  api_key: sk-file
  model: file-model
`)
	t.Setenv(config.EnvInterval, "5")
	t.Setenv(config.EnvAPIKey, "sk-env")
	t.Setenv(config.EnvModel, "")

	cfg, err := config.Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Interval() != 5*time.Second {
		t.Errorf("interval: got %v, want 5s", cfg.Capture.Interval())
	}
	if cfg.Vision.APIKey != "sk-env" {
		t.Errorf("api_key: got %q, want env value", cfg.Vision.APIKey)
	}
	// Empty variables do not override.
	if cfg.Vision.Model != "file-model" {
		t.Errorf("model: got %q, want file value", cfg.Vision.Model)
	}
	if cfg.Capture.OutputDir != "from-file" {
		t.Errorf("output_dir: got %q", cfg.Capture.OutputDir)
	}
}

func TestResolve_EnvOnly(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "sk-env")
	t.Setenv(config.EnvEndpoint, "http://localhost:1234/v1/chat/completions")
	t.Setenv(config.EnvOutputFolder, "shots")
	t.Setenv(config.EnvPrompt, "Summarise")
	t.Setenv(config.EnvWindowInfo, "true")
	t.Setenv(config.EnvAudioEnabled, "false")
	t.Setenv(config.EnvLogLevel, "warn")

	cfg, err := config.Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Vision.BaseURL != "http://localhost:1234/v1/chat/completions" {
		t.Errorf("base_url: got %q", cfg.Vision.BaseURL)
	}
	if cfg.Vision.Prompt != "Summarise" {
		t.Errorf("prompt: got %q", cfg.Vision.Prompt)
	}
	if cfg.Capture.OutputDir != "shots" {
		t.Errorf("output_dir: got %q", cfg.Capture.OutputDir)
	}
	if !cfg.Capture.WindowInfo {
		t.Error("window_info: want true")
	}
	if cfg.Audio.Enabled {
		t.Error("audio: want disabled")
	}
	if cfg.Server.LogLevel != config.LogWarn {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
}

func TestResolve_InvalidNumber(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "sk-env")
	t.Setenv(config.EnvInterval, "soon")

	_, err := config.Resolve("")
	if err == nil {
		t.Fatal("expected error for non-numeric interval, got nil")
	}
	if !strings.Contains(err.Error(), config.EnvInterval) {
		t.Errorf("error should name %s, got: %v", config.EnvInterval, err)
	}
}

func TestResolve_ValidatesMergedResult(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "sk-env")
	t.Setenv(config.EnvInterval, "0")

	_, err := config.Resolve("")
	if err == nil {
		t.Fatal("expected validation error for zero interval, got nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "MODEL=dotenv-model\nOPENAI_API_KEY=sk-dotenv\n")

	// t.Setenv restores both variables after the test.
	t.Setenv(config.EnvModel, "already-set")
	t.Setenv(config.EnvAPIKey, "")
	os.Unsetenv(config.EnvAPIKey)

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv(config.EnvModel); got != "already-set" {
		t.Errorf("MODEL: got %q, existing value must win", got)
	}
	if got := os.Getenv(config.EnvAPIKey); got != "sk-dotenv" {
		t.Errorf("OPENAI_API_KEY: got %q, want sk-dotenv", got)
	}
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
