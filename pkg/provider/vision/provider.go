// Package vision defines the Provider interface for vision-capable model
// backends that turn a screenshot into a free-text description.
//
// A vision provider wraps a remote model API (an OpenAI-compatible
// chat-completions endpoint, a multipart upload endpoint, or the official
// OpenAI SDK) and exposes a single Describe call so the capture loop is not
// coupled to any wire format.
//
// Providers perform exactly one request per Describe call. They never retry
// and never apply a timeout beyond whatever the HTTP client already enforces;
// a failed call aborts only the current capture iteration.
//
// Implementors must be safe for concurrent use.
package vision

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultPrompt is sent alongside the image when no custom prompt is configured.
	DefaultPrompt = "Describe this image of user screen, and try to describe what the user is doing."

	// DefaultModel is the model identifier used when none is configured.
	DefaultModel = "gpt-4-vision-preview"

	// DefaultChatEndpoint is the chat-completions URL used by the chat provider.
	DefaultChatEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultMaxTokens caps the length of the generated description.
	DefaultMaxTokens = 1024
)

// Provider produces a textual description of an encoded image.
type Provider interface {
	// Describe sends image (PNG bytes) to the backend and returns the
	// description text.
	//
	// Errors match one of [ErrTransport], [ErrRemote] or [ErrNoDescription]
	// via errors.Is. Remote failures can be unwrapped to a [*RemoteError]
	// with errors.As to inspect the remote message and type.
	Describe(ctx context.Context, image []byte) (string, error)
}

var (
	// ErrTransport reports that the HTTP request itself failed (DNS, connect,
	// TLS, reading the body).
	ErrTransport = errors.New("vision: transport error")

	// ErrRemote reports that the API answered with a non-success status or an
	// embedded error object.
	ErrRemote = errors.New("vision: remote error")

	// ErrNoDescription reports a well-formed success response that carries no
	// description.
	ErrNoDescription = errors.New("vision: no description found in response")
)

// RemoteError is a failure reported by the remote API.
type RemoteError struct {
	// StatusCode is the HTTP status of the response. It is 200 when the error
	// object was embedded in an otherwise successful response.
	StatusCode int

	// Message is the human-readable error message from the API, or the raw
	// response body when no structured error could be decoded.
	Message string

	// Type is the API's error classification (e.g. "invalid_request_error").
	// It may be empty.
	Type string
}

// Error implements error.
func (e *RemoteError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("vision: api error (status %d): %s (%s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("vision: api error (status %d): %s", e.StatusCode, e.Message)
}

// Is makes every RemoteError match [ErrRemote].
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// TransportError wraps err so that it matches [ErrTransport] while keeping the
// original cause reachable through errors.Unwrap.
func TransportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
