// Package anyllm provides a vision provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface. It
// lets Anthropic, Gemini, Mistral, Ollama and llamafile models describe
// screenshots with the same image-content message the OpenAI providers send.
//
// Usage:
//
//	p, err := anyllm.New("anthropic", "claude-sonnet-4-5", anyllm.WithAPIKey("sk-ant-..."))
//	p, err := anyllm.New("ollama", "llava", anyllm.WithBaseURL("http://localhost:11434"))
//	text, err := p.Describe(ctx, pngBytes)
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	oai "github.com/openai/openai-go"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

var _ vision.Provider = (*Provider)(nil)

// Backends lists the any-llm backends that accept image input.
var Backends = []string{"anthropic", "gemini", "mistral", "ollama", "llamafile"}

// settings collects options before the backend is built.
type settings struct {
	prompt      string
	maxTokens   int
	httpClient  *http.Client
	backendOpts []anyllmlib.Option
}

// Option is a functional option for New.
type Option func(*settings)

// WithAPIKey sets the backend credential. Without it the backend falls back
// to its own environment variable (e.g. ANTHROPIC_API_KEY).
func WithAPIKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.backendOpts = append(s.backendOpts, anyllmlib.WithAPIKey(key))
		}
	}
}

// WithBaseURL overrides the backend's API address.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.backendOpts = append(s.backendOpts, anyllmlib.WithBaseURL(url))
		}
	}
}

// WithPrompt sets the text prompt sent with every image. Defaults to
// [vision.DefaultPrompt].
func WithPrompt(prompt string) Option {
	return func(s *settings) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

// WithMaxTokens caps the description length. Defaults to
// [vision.DefaultMaxTokens].
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. The default has no timeout, so
// any-llm's own request timeout does not apply.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// Provider implements vision.Provider by wrapping an any-llm backend.
type Provider struct {
	backend   anyllmlib.Provider
	model     string
	prompt    string
	maxTokens int
}

// New creates a Provider for the named backend (one of [Backends]) and model.
func New(backendName, model string, opts ...Option) (*Provider, error) {
	if backendName == "" {
		return nil, errors.New("anyllm: backendName must not be empty")
	}
	if model == "" {
		return nil, errors.New("anyllm: model must not be empty")
	}

	s := settings{
		prompt:     vision.DefaultPrompt,
		maxTokens:  vision.DefaultMaxTokens,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(&s)
	}

	backend, err := createBackend(backendName, append(s.backendOpts, anyllmlib.WithHTTPClient(s.httpClient))...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", backendName, err)
	}
	return newWithBackend(backend, model, s)
}

func newWithBackend(backend anyllmlib.Provider, model string, s settings) (*Provider, error) {
	if cp, ok := backend.(anyllmlib.CapabilityProvider); ok && !cp.Capabilities().CompletionImage {
		return nil, fmt.Errorf("anyllm: backend %q does not accept image input", backend.Name())
	}
	return &Provider{
		backend:   backend,
		model:     model,
		prompt:    s.prompt,
		maxTokens: s.maxTokens,
	}, nil
}

func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: %s", name, strings.Join(Backends, ", "))
	}
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, image []byte) (string, error) {
	resp, err := p.backend.Completion(ctx, p.buildParams(image))
	if err != nil {
		return "", convertError(p.backend.Name(), err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", vision.ErrNoDescription
	}
	text := resp.Choices[0].Message.ContentString()
	if text == "" {
		return "", vision.ErrNoDescription
	}
	return text, nil
}

// buildParams assembles a single user message carrying the prompt and the
// image as a data URI.
func (p *Provider) buildParams(image []byte) anyllmlib.CompletionParams {
	maxTokens := p.maxTokens
	return anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{{
			Role: anyllmlib.RoleUser,
			Content: []anyllmlib.ContentPart{
				{Type: "text", Text: p.prompt},
				{Type: "image_url", ImageURL: &anyllmlib.ImageURL{URL: vision.DataURI(image)}},
			},
		}},
		MaxTokens: &maxTokens,
	}
}

// remoteKinds maps any-llm error classes to the RemoteError type.
var remoteKinds = []struct {
	target error
	kind   string
}{
	{anyllmlib.ErrAuthentication, "authentication_error"},
	{anyllmlib.ErrRateLimit, "rate_limit"},
	{anyllmlib.ErrInvalidRequest, "invalid_request"},
	{anyllmlib.ErrContextLength, "context_length_exceeded"},
	{anyllmlib.ErrContentFilter, "content_filter"},
	{anyllmlib.ErrModelNotFound, "model_not_found"},
	{anyllmlib.ErrProvider, "provider_error"},
}

// convertError maps a backend failure onto the vision error taxonomy.
// Network failures are checked first because any-llm reports them as
// provider errors too.
func convertError(backend string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return vision.TransportError("anyllm: "+backend, err)
	}
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return &vision.RemoteError{StatusCode: apiErr.StatusCode, Message: apiErr.Message, Type: apiErr.Type}
	}
	for _, k := range remoteKinds {
		if errors.Is(err, k.target) {
			return &vision.RemoteError{Message: err.Error(), Type: k.kind}
		}
	}
	return fmt.Errorf("anyllm: %s completion: %w", backend, err)
}
