// Package openai provides a vision provider backed by the official OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

var _ vision.Provider = (*Provider)(nil)

// Provider implements vision.Provider using the OpenAI chat-completions API.
type Provider struct {
	client    oai.Client
	model     string
	prompt    string
	maxTokens int64
}

// config holds optional configuration for the provider.
type config struct {
	baseURL   string
	prompt    string
	maxTokens int64
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithPrompt sets the text prompt sent with every image.
func WithPrompt(prompt string) Option {
	return func(c *config) {
		c.prompt = prompt
	}
}

// WithMaxTokens caps the description length.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		c.maxTokens = int64(n)
	}
}

// New constructs a new OpenAI vision Provider. An empty model selects
// [vision.DefaultModel].
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		model = vision.DefaultModel
	}

	cfg := &config{prompt: vision.DefaultPrompt, maxTokens: vision.DefaultMaxTokens}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.prompt == "" {
		cfg.prompt = vision.DefaultPrompt
	}
	if cfg.maxTokens <= 0 {
		cfg.maxTokens = vision.DefaultMaxTokens
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{
		client:    oai.NewClient(reqOpts...),
		model:     model,
		prompt:    cfg.prompt,
		maxTokens: cfg.maxTokens,
	}, nil
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, image []byte) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(image))
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", &vision.RemoteError{
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
				Type:       apiErr.Type,
			}
		}
		return "", vision.TransportError("openai: chat completion", err)
	}
	// Some compatible servers report failures as an error object with 200.
	if re := vision.EmbeddedError(http.StatusOK, []byte(resp.RawJSON())); re != nil {
		return "", re
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", vision.ErrNoDescription
	}
	return resp.Choices[0].Message.Content, nil
}

// buildParams assembles a single user message carrying the prompt and the
// image as a data URI.
func (p *Provider) buildParams(image []byte) oai.ChatCompletionNewParams {
	parts := []oai.ChatCompletionContentPartUnionParam{
		oai.TextContentPart(p.prompt),
		oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
			URL: vision.DataURI(image),
		}),
	}
	return oai.ChatCompletionNewParams{
		Model:     shared.ChatModel(p.model),
		Messages:  []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)},
		MaxTokens: param.NewOpt(p.maxTokens),
	}
}
