package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MrWong99/deskscribe/internal/app"
	"github.com/MrWong99/deskscribe/internal/config"
	"github.com/MrWong99/deskscribe/pkg/audio"
	"github.com/MrWong99/deskscribe/pkg/audio/portaudio"
	"github.com/MrWong99/deskscribe/pkg/provider/vision"
	"github.com/MrWong99/deskscribe/pkg/provider/vision/anyllm"
	"github.com/MrWong99/deskscribe/pkg/provider/vision/chat"
	"github.com/MrWong99/deskscribe/pkg/provider/vision/multipart"
	oaivision "github.com/MrWong99/deskscribe/pkg/provider/vision/openai"
)

// registerBuiltinProviders wires all built-in factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Vision ────────────────────────────────────────────────────────────────

	reg.RegisterVision("chat", func(e config.ProviderEntry) (vision.Provider, error) {
		return chat.New(e.APIKey,
			chat.WithEndpoint(e.BaseURL),
			chat.WithModel(e.Model),
			chat.WithPrompt(e.Prompt),
			chat.WithMaxTokens(e.MaxTokens),
		)
	})

	reg.RegisterVision("multipart", func(e config.ProviderEntry) (vision.Provider, error) {
		return multipart.New(e.BaseURL, e.APIKey,
			multipart.WithModel(e.Model),
			multipart.WithPrompt(e.Prompt),
		)
	})

	reg.RegisterVision("openai", func(e config.ProviderEntry) (vision.Provider, error) {
		var opts []oaivision.Option
		if e.BaseURL != "" {
			opts = append(opts, oaivision.WithBaseURL(e.BaseURL))
		}
		if e.Prompt != "" {
			opts = append(opts, oaivision.WithPrompt(e.Prompt))
		}
		if e.MaxTokens > 0 {
			opts = append(opts, oaivision.WithMaxTokens(e.MaxTokens))
		}
		return oaivision.New(e.APIKey, e.Model, opts...)
	})

	// any-llm-go backends: the config name selects the backend.
	for _, backend := range anyllm.Backends {
		reg.RegisterVision(backend, func(e config.ProviderEntry) (vision.Provider, error) {
			return anyllm.New(backend, e.Model,
				anyllm.WithAPIKey(e.APIKey),
				anyllm.WithBaseURL(e.BaseURL),
				anyllm.WithPrompt(e.Prompt),
				anyllm.WithMaxTokens(e.MaxTokens),
			)
		})
	}

	// ── Audio ─────────────────────────────────────────────────────────────────

	reg.RegisterAudio("portaudio", func(config.AudioConfig) (audio.Source, error) {
		return portaudio.New()
	})
}

// buildProviders instantiates the configured providers. The returned func
// releases whatever was opened. Audio is skipped when disabled or when only a
// single iteration runs; an audio backend that fails to initialise is logged
// and recording stays off.
func buildProviders(cfg *config.Config, reg *config.Registry, skipAudio bool) (*app.Providers, func(), error) {
	v, err := reg.CreateVision(cfg.Vision)
	if err != nil {
		return nil, nil, fmt.Errorf("create vision provider %q: %w", cfg.Vision.Name, err)
	}
	p := &app.Providers{Vision: v}
	closeFn := func() {}

	if cfg.Audio.Enabled && !skipAudio {
		src, err := reg.CreateAudio(cfg.Audio)
		if err != nil {
			slog.Error("audio backend unavailable, recording disabled", "source", cfg.Audio.Source, "err", err)
		} else {
			p.Audio = src
			if c, ok := src.(io.Closer); ok {
				closeFn = func() {
					if err := c.Close(); err != nil {
						slog.Warn("audio backend close", "err", err)
					}
				}
			}
		}
	}
	return p, closeFn, nil
}
