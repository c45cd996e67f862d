package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/deskscribe/pkg/provider/vision"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Fatal("expected error for empty api key")
	}
	p, err := New("sk-test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != vision.DefaultModel {
		t.Errorf("model = %q, want %q", p.model, vision.DefaultModel)
	}
	if p.prompt != vision.DefaultPrompt {
		t.Errorf("prompt = %q, want default", p.prompt)
	}
	if p.maxTokens != vision.DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", p.maxTokens, vision.DefaultMaxTokens)
	}
}

func TestBuildParams(t *testing.T) {
	p, _ := New("sk-test", "gpt-4o", WithPrompt("what?"), WithMaxTokens(64))
	params := p.buildParams([]byte("img"))

	if string(params.Model) != "gpt-4o" {
		t.Errorf("model = %q", params.Model)
	}
	if !params.MaxTokens.Valid() || params.MaxTokens.Value != 64 {
		t.Errorf("max tokens = %+v, want 64", params.MaxTokens)
	}
	if len(params.Messages) != 1 || params.Messages[0].OfUser == nil {
		t.Fatalf("expected one user message, got %+v", params.Messages)
	}
	parts := params.Messages[0].OfUser.Content.OfArrayOfContentParts
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(parts))
	}
	if parts[0].OfText == nil || parts[0].OfText.Text != "what?" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].OfImageURL == nil || parts[1].OfImageURL.ImageURL.URL != vision.DataURI([]byte("img")) {
		t.Errorf("image part = %+v", parts[1])
	}
}

func TestDescribe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"an editor"}}]}`)
	}))
	defer srv.Close()

	p, _ := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	text, err := p.Describe(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "an editor" {
		t.Errorf("description = %q", text)
	}
}

func TestDescribe_APIError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	p, _ := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	_, err := p.Describe(context.Background(), []byte("img"))
	if !errors.Is(err, vision.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	var re *vision.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if re.StatusCode != http.StatusInternalServerError || re.Message != "boom" {
		t.Errorf("remote error = %+v", re)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want exactly 1 (no retries)", calls)
	}
}

func TestDescribe_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o","choices":[]}`)
	}))
	defer srv.Close()

	p, _ := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	_, err := p.Describe(context.Background(), []byte("img"))
	if !errors.Is(err, vision.ErrNoDescription) {
		t.Fatalf("expected ErrNoDescription, got %v", err)
	}
}

func TestDescribe_EmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"error":{"message":"m","type":"t"}}`)
	}))
	defer srv.Close()

	p, _ := New("sk-test", "gpt-4o", WithBaseURL(srv.URL+"/v1/"))
	_, err := p.Describe(context.Background(), []byte("img"))
	if !errors.Is(err, vision.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	var re *vision.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if re.StatusCode != http.StatusOK || re.Message != "m" || re.Type != "t" {
		t.Errorf("remote error = %+v, want status 200 with m/t", re)
	}
	if !strings.Contains(err.Error(), "m") || !strings.Contains(err.Error(), "(t)") {
		t.Errorf("error string should surface message and type, got %q", err.Error())
	}
}
