package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bimmerbailey/quell/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
		wantErr  error
	}{
		{"ollama", "ollama", "http://localhost:11434", nil},
		{"case insensitive", "Ollama", "http://localhost:11434", nil},
		{"empty", "", "", ErrProviderUnspecified},
		{"unknown", "openai", "", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LLM: config.LLMConfig{
				Provider: tt.provider,
				Ollama:   config.OllamaConfig{Host: tt.host, Model: "llama3.2"},
			}}
			p, err := NewProvider(cfg, testLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewProvider() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if p.Model() != "llama3.2" {
				t.Errorf("Model() = %q", p.Model())
			}
		})
	}
}

func TestNewProviderNilArgs(t *testing.T) {
	if _, err := NewProvider(nil, testLogger()); err == nil {
		t.Error("NewProvider(nil config) should fail")
	}
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "ollama"}}
	if _, err := NewProvider(cfg, nil); err == nil {
		t.Error("NewProvider(nil logger) should fail")
	}
}

func TestNewProviderInvalidHost(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{
		Provider: "ollama",
		Ollama:   config.OllamaConfig{Host: "://bad"},
	}}
	if _, err := NewProvider(cfg, testLogger()); err == nil {
		t.Error("expected error for invalid host")
	}
}

// mockOllama serves the endpoints the adapter touches.
func mockOllama(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/api/tags":
			list := make([]map[string]string, len(models))
			for i, m := range models {
				list[i] = map[string]string{"name": m, "model": m}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"models": list})
		case "/api/chat":
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)
			if stream, _ := req["stream"].(bool); stream {
				w.Header().Set("Content-Type", "application/x-ndjson")
				enc := json.NewEncoder(w)
				enc.Encode(map[string]interface{}{"message": map[string]string{"content": "noisy "}, "done": false})
				enc.Encode(map[string]interface{}{"message": map[string]string{"content": "retries"}, "done": true})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"model":             req["model"],
				"message":           map[string]string{"role": "assistant", "content": "explained"},
				"done":              true,
				"prompt_eval_count": 7,
				"eval_count":        3,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, host string) Provider {
	t.Helper()
	cfg := &config.Config{LLM: config.LLMConfig{
		Provider: "ollama",
		Ollama:   config.OllamaConfig{Host: host, Model: "llama3.2"},
	}}
	p, err := NewProvider(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestAdapterChat(t *testing.T) {
	p := newTestProvider(t, mockOllama(t).URL)

	resp, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, &ChatOptions{Model: "other"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != "explained" || resp.Model != "other" {
		t.Errorf("Chat() = %+v", resp)
	}
	if resp.TokensPrompt != 7 || resp.TokensTotal != 10 {
		t.Errorf("tokens = %d/%d, want 7/10", resp.TokensPrompt, resp.TokensTotal)
	}
}

func TestAdapterChatEmptyMessages(t *testing.T) {
	p := newTestProvider(t, "http://localhost:11434")
	if _, err := p.Chat(context.Background(), nil, nil); !errors.Is(err, ErrNoMessages) {
		t.Errorf("Chat(nil) error = %v, want ErrNoMessages", err)
	}
}

func TestAdapterChatStream(t *testing.T) {
	p := newTestProvider(t, mockOllama(t).URL)

	stream, err := p.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	var sb strings.Builder
	done := false
	for e := range stream {
		if e.Error != nil {
			t.Fatalf("stream error: %v", e.Error)
		}
		sb.WriteString(e.Content)
		done = done || e.Done
	}
	if sb.String() != "noisy retries" || !done {
		t.Errorf("stream = %q, done = %v", sb.String(), done)
	}
}

func TestEnsureReady(t *testing.T) {
	srv := mockOllama(t, "llama3.2:latest")
	p := newTestProvider(t, srv.URL)

	if err := EnsureReady(context.Background(), p, "llama3.2"); err != nil {
		t.Errorf("EnsureReady() error = %v", err)
	}
	if err := EnsureReady(context.Background(), p, "mistral"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("EnsureReady(missing) error = %v, want ErrModelNotFound", err)
	}
}

func TestEnsureReadyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := newTestProvider(t, url)
	if err := EnsureReady(context.Background(), p, "llama3.2"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("EnsureReady() error = %v, want ErrProviderUnavailable", err)
	}
}
