package vision

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DataURI returns image as an inline "data:image/png;base64,…" URI, the form
// chat-completion APIs accept for image_url content parts.
func DataURI(image []byte) string {
	var b strings.Builder
	b.Grow(len("data:image/png;base64,") + base64.StdEncoding.EncodedLen(len(image)))
	b.WriteString("data:image/png;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(image))
	return b.String()
}

// ErrorEnvelope is the `{"error":{"message":…,"type":…}}` object OpenAI-style
// APIs return, either with a non-success status or embedded in a 200 body.
type ErrorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// RemoteErrorFromBody builds a [*RemoteError] for a response with the given
// status. When body holds an error envelope its message and type are used;
// otherwise the trimmed raw body becomes the message.
func RemoteErrorFromBody(status int, body []byte) *RemoteError {
	var env ErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return &RemoteError{StatusCode: status, Message: env.Error.Message, Type: env.Error.Type}
	}
	return &RemoteError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// EmbeddedError returns the error object carried in an otherwise successful
// response body, or nil when body has none.
func EmbeddedError(status int, body []byte) *RemoteError {
	var env ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return nil
	}
	return &RemoteError{StatusCode: status, Message: env.Error.Message, Type: env.Error.Type}
}
