package config_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/deskscribe/internal/config"
)

func baseConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Vision.APIKey = "sk-test"
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	d := config.Diff(cfg, cfg)
	if d.Changed() {
		t.Errorf("expected no changes for identical configs, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
	if len(d.RestartRequired) != 0 {
		t.Errorf("log level is hot-reloadable, got RestartRequired=%v", d.RestartRequired)
	}
}

func TestDiff_IntervalChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Capture.IntervalSeconds = 15

	d := config.Diff(old, new)
	if !d.IntervalChanged || d.NewInterval != 15 {
		t.Errorf("got IntervalChanged=%v NewInterval=%d", d.IntervalChanged, d.NewInterval)
	}
}

func TestDiff_VisionChanged(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.ProviderEntry)
	}{
		{"model", func(e *config.ProviderEntry) { e.Model = "gpt-4o" }},
		{"prompt", func(e *config.ProviderEntry) { e.Prompt = "describe" }},
		{"key", func(e *config.ProviderEntry) { e.APIKey = "sk-other" }},
		{"provider", func(e *config.ProviderEntry) { e.Name = "openai" }},
		{"max tokens", func(e *config.ProviderEntry) { e.MaxTokens = 64 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old := baseConfig()
			new := baseConfig()
			tc.mutate(&new.Vision)

			d := config.Diff(old, new)
			if !d.VisionChanged {
				t.Fatal("expected VisionChanged=true")
			}
			if d.NewVision != new.Vision {
				t.Errorf("NewVision: got %+v, want %+v", d.NewVision, new.Vision)
			}
		})
	}
}

func TestDiff_WindowInfoChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Capture.WindowInfo = true

	d := config.Diff(old, new)
	if !d.WindowInfoChanged || !d.NewWindowInfo {
		t.Errorf("got WindowInfoChanged=%v NewWindowInfo=%v", d.WindowInfoChanged, d.NewWindowInfo)
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Capture.OutputDir = "elsewhere"
	new.Capture.Display = 2
	new.Server.ListenAddr = ":9000"
	new.Audio.RotationSeconds = 30

	d := config.Diff(old, new)
	want := []string{"capture.output_dir", "capture.display", "server.listen_addr", "audio"}
	if !slices.Equal(d.RestartRequired, want) {
		t.Errorf("RestartRequired: got %v, want %v", d.RestartRequired, want)
	}
	if d.VisionChanged || d.IntervalChanged || d.LogLevelChanged {
		t.Errorf("unexpected hot-reload flags: %+v", d)
	}
	if !d.Changed() {
		t.Error("Changed() should be true")
	}
}
