// Package grok implements provider.Provider against the xAI Grok API. Grok
// exposes an OpenAI-compatible chat completions surface, so the adapter
// reuses the OpenAI SDK pointed at the xAI base URL.
package grok

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/session"
)

// DefaultBaseURL is the OpenAI-compatible endpoint of the xAI API.
const DefaultBaseURL = "https://api.x.ai/v1"

// Model identifiers for the Grok models known at build time.
const (
	Grok1    = "grok-1"
	Grok1Pro = "grok-1-pro"
)

// AvailableModels is the static Grok catalog. The live models endpoint is
// not probed; the catalog is small and stable.
var AvailableModels = map[string]string{
	Grok1:    "Base Grok model with general capabilities",
	Grok1Pro: "Enhanced Grok model with additional capabilities",
}

// Options configure the Grok provider.
type Options struct {
	provider.BaseOptions
	// APIKey authenticates against the xAI API. Required.
	APIKey string
	// Model is the initially selected model.
	Model string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Provider drives the Grok chat completions API.
type Provider struct {
	*provider.Base

	opts   Options
	client openai.Client

	mu    sync.RWMutex
	model string
}

var _ provider.Provider = (*Provider)(nil)

// New constructs an uninitialized Grok provider.
func New(registry *action.Registry, optFns ...func(o *Options)) *Provider {
	opts := Options{Model: Grok1, BaseURL: DefaultBaseURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	base := provider.NewBase("grok", registry, func(o *provider.BaseOptions) {
		*o = opts.BaseOptions
	})
	return &Provider{Base: base, opts: opts, model: opts.Model}
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

// Initialize implements provider.Provider.
func (p *Provider) Initialize(ctx context.Context) error {
	return p.EnsureInit(ctx, func(ctx context.Context) error {
		if p.opts.APIKey == "" {
			return &provider.ConfigurationError{
				Provider: "grok",
				Reason:   "API key is required, set GROK_API_KEY",
			}
		}
		p.client = openai.NewClient(
			option.WithAPIKey(p.opts.APIKey),
			option.WithBaseURL(p.opts.BaseURL),
		)

		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := AvailableModels[p.model]; !ok {
			p.Logger().Warn("Selected model not available, falling back",
				"provider", "grok", "requested", p.model, "using", Grok1)
			p.model = Grok1
		}
		return nil
	})
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

	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(model, messages, opts))
	if err != nil {
		return nil, &provider.BackendError{Provider: "grok", Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.BackendError{
			Provider: "grok", Op: "generate", Err: fmt.Errorf("no choices returned"),
		}
	}

	content := resp.Choices[0].Message.Content
	p.CommitTurn(opts.SessionID, prompt, content, true)

	return &provider.Response{
		Content:   content,
		Raw:       resp,
		ModelUsed: model,
		Usage: map[string]int64{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
		Cost: provider.CalculateCost("grok", model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
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

		stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(model, messages, opts))
		defer stream.Close()

		var full strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- delta:
				full.WriteString(delta)
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- &provider.BackendError{Provider: "grok", Op: "stream", Err: err}
			return
		}

		p.CommitTurn(opts.SessionID, prompt, full.String(), true)
	}()

	return out, errCh
}

func (p *Provider) buildParams(model string, messages []session.Message, opts provider.GenerateOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    toChatMessages(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	return params
}

func toChatMessages(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case session.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case session.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// ListModels implements provider.Provider. Grok always reports the static
// catalog.
func (p *Provider) ListModels(_ context.Context) map[string]string {
	out := make(map[string]string, len(AvailableModels))
	for k, v := range AvailableModels {
		out[k] = v
	}
	return out
}

// Cleanup implements provider.Provider.
func (p *Provider) Cleanup() error {
	p.ResetInit()
	return nil
}
