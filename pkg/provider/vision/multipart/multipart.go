// Package multipart provides a vision provider for endpoints that accept the
// screenshot as a multipart/form-data upload.
//
// The request carries three form fields: "file" (the PNG, filename
// screenshot.png), "prompt" and "model". A successful response has the shape
//
//	{"data": [{"description": "…"}]}
//
// and errors use the usual {"error":{"message":…,"type":…}} envelope.
package multipart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

var _ vision.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model form field. Defaults to [vision.DefaultModel].
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithPrompt sets the prompt form field. Defaults to [vision.DefaultPrompt].
func WithPrompt(prompt string) Option {
	return func(p *Provider) {
		if prompt != "" {
			p.prompt = prompt
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// Provider implements vision.Provider with a multipart upload.
type Provider struct {
	endpoint   string
	apiKey     string
	model      string
	prompt     string
	httpClient *http.Client
}

// New creates a Provider posting to endpoint with apiKey as bearer credential.
// Both must be non-empty.
func New(endpoint, apiKey string, opts ...Option) (*Provider, error) {
	if endpoint == "" {
		return nil, errors.New("multipart: endpoint must not be empty")
	}
	if apiKey == "" {
		return nil, errors.New("multipart: apiKey must not be empty")
	}
	p := &Provider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      vision.DefaultModel,
		prompt:     vision.DefaultPrompt,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// encodeForm writes the multipart body for image and returns it together with
// the Content-Type header value (including the boundary).
func (p *Provider) encodeForm(image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="screenshot.png"`)
	h.Set("Content-Type", "image/png")
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("prompt", p.prompt); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("model", p.model); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

type response struct {
	Data []struct {
		Description string `json:"description"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := p.encodeForm(image)
	if err != nil {
		return "", fmt.Errorf("multipart: encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("multipart: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", vision.TransportError("multipart: post", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", vision.TransportError("multipart: read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", vision.RemoteErrorFromBody(resp.StatusCode, raw)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", vision.ErrNoDescription, err)
	}
	if r.Error != nil {
		return "", &vision.RemoteError{StatusCode: resp.StatusCode, Message: r.Error.Message, Type: r.Error.Type}
	}
	if len(r.Data) == 0 || r.Data[0].Description == "" {
		return "", vision.ErrNoDescription
	}
	return r.Data[0].Description, nil
}
