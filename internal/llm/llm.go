// Package llm asks a language model to explain deduplicated log output.
//
// Provider hides the backend; only Ollama is implemented. Messages are
// usually built by the prompt package.
//
//	provider, err := llm.NewProvider(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	stream, err := provider.ChatStream(ctx, messages, nil)
//	for event := range stream {
//	    if event.Error != nil {
//	        return event.Error
//	    }
//	    fmt.Print(event.Content)
//	}
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/llm/ollama"
)

// Provider defines the interface for LLM interactions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Chat sends messages and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// ChatStream sends messages and returns a channel of streaming events.
	// The channel is closed when the stream completes or fails.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error)

	// Heartbeat returns nil if the backend is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether model is ready for use.
	ModelAvailable(ctx context.Context, model string) (bool, error)

	// Model returns the default model name.
	Model() string
}

// Message is a single message in a conversation.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// ChatOptions configures one request. A nil *ChatOptions uses provider
// defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int // 0 means provider default
}

// Response is a complete LLM response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent is one chunk of a streaming response. A non-nil Error ends
// the stream.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

// Errors shared with the backends, so errors.Is works across the adapter.
var (
	ErrProviderUnavailable = ollama.ErrProviderUnavailable
	ErrContextCanceled     = ollama.ErrContextCanceled
	ErrNoMessages          = ollama.ErrNoMessages

	ErrModelNotFound       = errors.New("requested model is not available")
	ErrProviderUnspecified = errors.New("llm provider not specified in configuration")
	ErrUnknownProvider     = errors.New("unknown llm provider")
)

// NewProvider creates the provider named by cfg.LLM.Provider.
func NewProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	name := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	logger.Debug("creating llm provider", "type", name)

	switch name {
	case "ollama":
		p, err := ollama.New(ollama.Config{
			Host:  cfg.LLM.Ollama.Host,
			Model: cfg.LLM.Ollama.Model,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &ollamaAdapter{p: p}, nil
	case "":
		return nil, ErrProviderUnspecified
	default:
		return nil, fmt.Errorf("%w: %s (supported: ollama)", ErrUnknownProvider, name)
	}
}

// ollamaAdapter converts between llm and ollama types.
type ollamaAdapter struct {
	p *ollama.Provider
}

func toOllama(messages []Message, opts *ChatOptions) ([]ollama.Message, *ollama.ChatOptions) {
	out := make([]ollama.Message, len(messages))
	for i, m := range messages {
		out[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	if opts == nil {
		return out, nil
	}
	return out, &ollama.ChatOptions{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
}

func (a *ollamaAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs, o := toOllama(messages, opts)
	resp, err := a.p.Chat(ctx, msgs, o)
	if err != nil {
		return nil, err
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	}, nil
}

func (a *ollamaAdapter) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	msgs, o := toOllama(messages, opts)
	in, err := a.p.ChatStream(ctx, msgs, o)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent, cap(in))
	go func() {
		defer close(out)
		for e := range in {
			out <- StreamEvent{Content: e.Content, Done: e.Done, Error: e.Error}
		}
	}()
	return out, nil
}

func (a *ollamaAdapter) Heartbeat(ctx context.Context) error {
	return a.p.Heartbeat(ctx)
}

func (a *ollamaAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	return a.p.ModelAvailable(ctx, model)
}

func (a *ollamaAdapter) Model() string {
	return a.p.Model()
}

// EnsureReady checks that p is reachable and has model pulled.
func EnsureReady(ctx context.Context, p Provider, model string) error {
	if err := p.Heartbeat(ctx); err != nil {
		return err
	}
	ok, err := p.ModelAvailable(ctx, model)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return nil
}
