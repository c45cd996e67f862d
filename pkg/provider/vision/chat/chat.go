// Package chat provides a vision provider that talks to an OpenAI-compatible
// chat-completions endpoint with plain JSON over HTTP.
//
// The screenshot is inlined as a base64 data URI next to a text prompt in a
// single user message:
//
//	{
//	  "model": "gpt-4-vision-preview",
//	  "messages": [{"role": "user", "content": [
//	    {"type": "text", "text": "<prompt>"},
//	    {"type": "image_url", "image_url": {"url": "data:image/png;base64,…"}}
//	  ]}],
//	  "max_tokens": 1024
//	}
//
// The description is read from choices[0].message.content. An embedded
// error object is reported even when the HTTP status is 200.
//
// Usage:
//
//	p, err := chat.New(apiKey,
//	    chat.WithEndpoint("http://localhost:8080/v1/chat/completions"),
//	    chat.WithPrompt("What is on screen?"),
//	)
//	text, err := p.Describe(ctx, pngBytes)
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

// Compile-time assertion that Provider implements vision.Provider.
var _ vision.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithEndpoint overrides the full chat-completions URL. Defaults to
// [vision.DefaultChatEndpoint].
func WithEndpoint(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.endpoint = url
		}
	}
}

// WithModel sets the model identifier. Defaults to [vision.DefaultModel].
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithPrompt sets the text prompt sent with every image. Defaults to
// [vision.DefaultPrompt].
func WithPrompt(prompt string) Option {
	return func(p *Provider) {
		if prompt != "" {
			p.prompt = prompt
		}
	}
}

// WithMaxTokens caps the generated description length. Defaults to
// [vision.DefaultMaxTokens].
func WithMaxTokens(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. The default is a client without a
// timeout override.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// Provider implements vision.Provider against a chat-completions endpoint.
type Provider struct {
	apiKey     string
	endpoint   string
	model      string
	prompt     string
	maxTokens  int
	httpClient *http.Client
}

// New creates a Provider authenticating with apiKey as a bearer credential.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("chat: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		endpoint:   vision.DefaultChatEndpoint,
		model:      vision.DefaultModel,
		prompt:     vision.DefaultPrompt,
		maxTokens:  vision.DefaultMaxTokens,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ---- wire types -------------------------------------------------------------

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// buildRequest assembles the JSON payload for image.
func (p *Provider) buildRequest(image []byte) request {
	return request{
		Model: p.model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: p.prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: vision.DataURI(image)}},
			},
		}},
		MaxTokens: p.maxTokens,
	}
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(p.buildRequest(image))
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", vision.TransportError("chat: post", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", vision.TransportError("chat: read body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", vision.RemoteErrorFromBody(resp.StatusCode, respBody)
	}

	return parseResponse(resp.StatusCode, respBody)
}

// parseResponse extracts the description from a 2xx response body.
func parseResponse(status int, body []byte) (string, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", vision.ErrNoDescription, err)
	}
	if r.Error != nil {
		return "", &vision.RemoteError{StatusCode: status, Message: r.Error.Message, Type: r.Error.Type}
	}
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == "" {
		return "", vision.ErrNoDescription
	}
	return r.Choices[0].Message.Content, nil
}
