// Package ollama implements provider.Provider against a local Ollama server
// using its native HTTP API. No credential is required, every model prices
// at zero, and Usage reports nanosecond durations instead of token counts
// since the server does not return token usage on the chat endpoint.
package ollama

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/session"
)

// DefaultHost is the default address of a local Ollama server.
const DefaultHost = "http://localhost:11434"

// DefaultModel is requested when no model is configured. Validated against
// the installed models during Initialize.
const DefaultModel = "mistral"

// Options configure the Ollama provider.
type Options struct {
	provider.BaseOptions
	// Host is the base URL of the Ollama server.
	Host string
	// Model is the initially selected model.
	Model string
}

// Provider drives a local Ollama server.
type Provider struct {
	*provider.Base

	opts   Options
	client *client

	mu        sync.RWMutex
	model     string
	available map[string]string
}

var _ provider.Provider = (*Provider)(nil)

// New constructs an uninitialized Ollama provider.
func New(registry *action.Registry, optFns ...func(o *Options)) *Provider {
	opts := Options{Host: DefaultHost, Model: DefaultModel}
	for _, fn := range optFns {
		fn(&opts)
	}
	base := provider.NewBase("ollama", registry, func(o *provider.BaseOptions) {
		*o = opts.BaseOptions
	})
	return &Provider{
		Base:   base,
		opts:   opts,
		client: newClient(opts.Host),
		model:  opts.Model,
	}
}

// Model implements provider.Provider.
func (p *Provider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// SetModel implements provider.Provider.
func (p *Provider) SetModel(model string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

// Initialize implements provider.Provider. It verifies the server is
// reachable, detects the installed models and falls back to the first one
// when the selected model is not installed.
func (p *Provider) Initialize(ctx context.Context) error {
	return p.EnsureInit(ctx, func(ctx context.Context) error {
		if err := p.client.ping(ctx); err != nil {
			return &provider.ConfigurationError{Provider: "ollama", Reason: err.Error()}
		}

		available, err := p.detectModels(ctx)
		if err != nil {
			return err
		}
		if len(available) == 0 {
			return &provider.NoModelsError{Provider: "ollama"}
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		p.available = available
		if _, ok := available[p.model]; !ok {
			names := make([]string, 0, len(available))
			for name := range available {
				names = append(names, name)
			}
			sort.Strings(names)
			p.Logger().Warn("Requested model not installed, falling back",
				"provider", "ollama", "requested", p.model, "using", names[0])
			p.model = names[0]
		}
		p.Logger().Info("Ollama provider initialized",
			"host", p.opts.Host, "model", p.model, "models", len(available))
		return nil
	})
}

// detectModels lists the installed models and builds a description for each
// from its reported details. Tag suffixes are stripped, so "mistral:latest"
// is exposed as "mistral".
func (p *Provider) detectModels(ctx context.Context) (map[string]string, error) {
	models, err := p.client.listModels(ctx)
	if err != nil {
		return nil, &provider.BackendError{Provider: "ollama", Op: "list-models", Err: err}
	}

	available := make(map[string]string, len(models))
	for _, m := range models {
		name := m.Name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}

		var details []string
		if m.Details.ParameterSize != "" {
			details = append(details, "Size: "+m.Details.ParameterSize)
		}
		if m.Details.Format != "" {
			details = append(details, "Format: "+m.Details.Format)
		}
		if m.Details.Family != "" {
			details = append(details, "Family: "+m.Details.Family)
		}
		detail := "No additional details"
		if len(details) > 0 {
			detail = strings.Join(details, ", ")
		}
		available[name] = fmt.Sprintf("%s model (%s)", name, detail)
	}
	return available, nil
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string, optFns ...func(o *provider.GenerateOptions)) (*provider.Response, error) {
	opts := provider.NewGenerateOptions(optFns...)

	ctx, cancel := opts.CallContext(ctx)
	defer cancel()

	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}

	model := p.Model()
	messages := p.BuildMessages(opts.SessionID, prompt, true)

	resp, err := p.client.chat(ctx, p.buildRequest(model, messages, opts))
	if err != nil {
		return nil, &provider.BackendError{Provider: "ollama", Op: "generate", Err: err}
	}

	content := resp.Message.Content
	p.CommitTurn(opts.SessionID, prompt, content, true)

	return &provider.Response{
		Content:   content,
		Raw:       resp,
		ModelUsed: model,
		Usage: map[string]int64{
			"total_duration":       resp.TotalDuration,
			"prompt_eval_duration": resp.PromptEvalDuration,
			"eval_duration":        resp.EvalDuration,
		},
		// Local inference is free; the zero cost is still computed through
		// the shared calculator so the response shape stays uniform.
		Cost: provider.CalculateCost("ollama", model, 0, 0),
	}, nil
}

// Stream implements provider.Provider.
func (p *Provider) Stream(ctx context.Context, prompt string, optFns ...func(o *provider.GenerateOptions)) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		opts := provider.NewGenerateOptions(optFns...)

		ctx, cancel := opts.CallContext(ctx)
		defer cancel()

		if err := p.Initialize(ctx); err != nil {
			errCh <- err
			return
		}

		model := p.Model()
		messages := p.BuildMessages(opts.SessionID, prompt, true)

		var full strings.Builder
		err := p.client.chatStream(ctx, p.buildRequest(model, messages, opts), func(chunk chatResponse) error {
			if chunk.Message.Content == "" {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- chunk.Message.Content:
				full.WriteString(chunk.Message.Content)
				return nil
			}
		})
		if err != nil {
			errCh <- &provider.BackendError{Provider: "ollama", Op: "stream", Err: err}
			return
		}

		p.CommitTurn(opts.SessionID, prompt, full.String(), true)
	}()

	return out, errCh
}

func (p *Provider) buildRequest(model string, messages []session.Message, opts provider.GenerateOptions) chatRequest {
	req := chatRequest{
		Model:    model,
		Messages: make([]chatMessage, 0, len(messages)),
		Options:  &chatOptions{Temperature: opts.Temperature},
	}
	if opts.MaxTokens > 0 {
		req.Options.NumPredict = opts.MaxTokens
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return req
}

// ListModels implements provider.Provider. Best-effort: an unreachable
// server yields an empty catalog rather than an error.
func (p *Provider) ListModels(ctx context.Context) map[string]string {
	available, err := p.detectModels(ctx)
	if err != nil {
		p.Logger().Warn("Error listing Ollama models", "error", err)
		return map[string]string{}
	}
	return available
}

// Cleanup implements provider.Provider.
func (p *Provider) Cleanup() error {
	p.client.httpClient.CloseIdleConnections()
	p.ResetInit()
	return nil
}
