// Package ollama talks to a local or remote Ollama server.
//
// It defines its own message types so the parent llm package can depend on
// it without an import cycle; llm adapts them to its Provider interface.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "llama3.2"

// Common errors
var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
	ErrNoMessages          = errors.New("messages cannot be empty")
)

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the API endpoint, e.g. "http://localhost:11434". Empty means
	// OLLAMA_HOST or the library default.
	Host  string
	Model string
}

// Message is one chat message.
type Message struct {
	Role    string
	Content string
}

// ChatOptions overrides per-request settings.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response is a complete chat response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent is one chunk of a streamed response.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

// Provider implements chat against Ollama.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// New creates a Provider.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var client *api.Client
	if cfg.Host != "" {
		u, err := url.Parse(cfg.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host %q", cfg.Host)
		}
		client = api.NewClient(u, http.DefaultClient)
		logger.Debug("created ollama client", "host", cfg.Host)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Provider{client: client, config: cfg, logger: logger}, nil
}

// Model returns the default model name.
func (p *Provider) Model() string {
	return p.config.Model
}

func (p *Provider) buildRequest(messages []Message, opts *ChatOptions, stream bool) *api.ChatRequest {
	model := p.config.Model
	var temperature float32
	maxTokens := 0
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
	}

	converted := make([]api.Message, len(messages))
	for i, m := range messages {
		converted[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: converted,
		Options:  map[string]interface{}{"temperature": temperature},
		Stream:   &stream,
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	return req
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// Chat sends messages and waits for the complete response.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	req := p.buildRequest(messages, opts, false)
	p.logger.Debug("sending chat request", "model", req.Model, "messages", len(messages))

	var resp api.ChatResponse
	err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", req.Model)
		return nil, wrapErr(err)
	}

	p.logger.Debug("chat request completed",
		"model", resp.Model,
		"prompt_tokens", resp.PromptEvalCount,
		"completion_tokens", resp.EvalCount)

	return &Response{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		TokensPrompt: resp.PromptEvalCount,
		TokensTotal:  resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

// ChatStream sends messages and streams the response. The channel is closed
// when the response completes, fails or ctx is cancelled.
func (p *Provider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	req := p.buildRequest(messages, opts, true)
	p.logger.Debug("starting chat stream", "model", req.Model, "messages", len(messages))

	events := make(chan StreamEvent, 10)
	go func() {
		defer close(events)

		err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.Message.Content != "" || r.Done {
				events <- StreamEvent{Content: r.Message.Content, Done: r.Done}
			}
			return nil
		})

		switch {
		case err == nil:
		case ctx.Err() != nil:
			events <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err()), Done: true}
		default:
			p.logger.Error("chat stream failed", "error", err, "model", req.Model)
			events <- StreamEvent{Error: wrapErr(err), Done: true}
		}
	}()

	return events, nil
}

// Heartbeat checks that the server is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Debug("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// ModelAvailable reports whether model has been pulled. A name without a
// tag matches any tag of that model.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	list, err := p.client.List(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	for _, m := range list.Models {
		if m.Name == model || m.Model == model {
			return true, nil
		}
		if !strings.Contains(model, ":") && strings.HasPrefix(m.Name, model+":") {
			return true, nil
		}
	}
	return false, nil
}
