// Package anthropic implements provider.Provider against the Anthropic
// Messages API using the official Go SDK. Every Claude model accepts a
// system prompt, so the capability message is always sent; the Messages API
// carries it in a dedicated field rather than in the message list.
package anthropic

import (
	"context"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/session"
)

// Model identifiers for the Claude models known at build time.
const (
	Claude3Opus   = "claude-3-opus-20240229"
	Claude3Sonnet = "claude-3-sonnet-20240229"
	Claude3Haiku  = "claude-3-haiku-20240307"
	Claude2       = "claude-2.1"
)

// AvailableModels is the static catalog used when availability cannot be
// probed.
var AvailableModels = map[string]string{
	Claude3Opus:   "Most capable model, best for complex tasks and reasoning",
	Claude3Sonnet: "Balanced model with strong performance and reasonable cost",
	Claude3Haiku:  "Fastest and most cost-effective model",
	Claude2:       "Legacy Claude 2 model for backwards compatibility",
}

const defaultMaxTokens = 4096

// sharedCatalog caches probed model availability across instances.
var sharedCatalog = provider.NewCatalog()

// Options configure the Anthropic provider.
type Options struct {
	provider.BaseOptions
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string
	// Model is the initially selected model.
	Model string
	// BaseURL overrides the API endpoint, mainly for tests. Empty means the
	// public API.
	BaseURL string
	// Catalog overrides the process-wide availability cache, mainly for
	// tests.
	Catalog *provider.Catalog
}

// Provider drives the Anthropic Messages API.
type Provider struct {
	*provider.Base

	opts   Options
	client anthropic.Client

	mu        sync.RWMutex
	model     string
	available map[string]string
}

var _ provider.Provider = (*Provider)(nil)

// New constructs an uninitialized Anthropic provider.
func New(registry *action.Registry, optFns ...func(o *Options)) *Provider {
	opts := Options{Model: Claude3Opus, Catalog: sharedCatalog}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Catalog == nil {
		opts.Catalog = sharedCatalog
	}
	base := provider.NewBase("anthropic", registry, func(o *provider.BaseOptions) {
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
				Provider: "anthropic",
				Reason:   "API key is required, set ANTHROPIC_API_KEY",
			}
		}
		p.client = anthropic.NewClient(p.clientOptions()...)

		available := p.opts.Catalog.Load(func() (map[string]string, error) {
			return p.probeModels(ctx)
		}, AvailableModels)

		p.mu.Lock()
		defer p.mu.Unlock()
		p.available = available
		if _, ok := available[p.model]; !ok {
			var first string
			for _, id := range []string{Claude3Opus, Claude3Sonnet, Claude3Haiku, Claude2} {
				if _, ok := available[id]; ok {
					first = id
					break
				}
			}
			if first == "" {
				return &provider.NoModelsError{Provider: "anthropic"}
			}
			p.Logger().Warn("Selected model not available, falling back",
				"provider", "anthropic", "requested", p.model, "using", first)
			p.model = first
		}
		return nil
	})
}

// probeModels checks each known model with a one-token request. A "not found"
// response drops the model from the catalog; any other failure keeps it, so a
// transient error never empties the list.
func (p *Provider) probeModels(ctx context.Context) (map[string]string, error) {
	available := make(map[string]string)
	for id, description := range AvailableModels {
		_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(id),
			MaxTokens: 1,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock("test")),
			},
		})
		if err != nil {
			msg := strings.ToLower(err.Error())
			if strings.Contains(msg, "model not found") || strings.Contains(msg, "not_found") {
				p.Logger().Debug("Model not available", "provider", "anthropic", "model", id)
				continue
			}
			if strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication") {
				return nil, &provider.BackendError{Provider: "anthropic", Op: "list-models", Err: err}
			}
		}
		available[id] = description
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
	params := p.buildParams(model, messages, opts)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &provider.BackendError{Provider: "anthropic", Op: "generate", Err: err}
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.AsText().Text)
		}
	}
	text := content.String()
	p.CommitTurn(opts.SessionID, prompt, text, true)

	inputTokens := resp.Usage.InputTokens
	outputTokens := resp.Usage.OutputTokens

	return &provider.Response{
		Content:   text,
		Raw:       resp,
		ModelUsed: model,
		Usage: map[string]int64{
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"total_tokens":  inputTokens + outputTokens,
		},
		Cost: provider.CalculateCost("anthropic", model, inputTokens, outputTokens),
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
		params := p.buildParams(model, messages, opts)

		stream := p.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		var full strings.Builder
		for stream.Next() {
			event := stream.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- textDelta.Text:
				full.WriteString(textDelta.Text)
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- &provider.BackendError{Provider: "anthropic", Op: "stream", Err: err}
			return
		}

		p.CommitTurn(opts.SessionID, prompt, full.String(), true)
	}()

	return out, errCh
}

// buildParams converts the assembled history into Messages API parameters,
// lifting the system message into the dedicated System field.
func (p *Provider) buildParams(model string, messages []session.Message, opts provider.GenerateOptions) anthropic.MessageNewParams {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(opts.Temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case session.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case session.RoleAssistant:
			params.Messages = append(params.Messages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return params
}

// ListModels implements provider.Provider. Without an API key it returns the
// static catalog; with one it returns the probed availability.
func (p *Provider) ListModels(ctx context.Context) map[string]string {
	if p.opts.APIKey == "" {
		out := make(map[string]string, len(AvailableModels))
		for k, v := range AvailableModels {
			out[k] = v
		}
		return out
	}
	client := anthropic.NewClient(p.clientOptions()...)
	return p.opts.Catalog.Load(func() (map[string]string, error) {
		probe := &Provider{Base: p.Base, opts: p.opts, client: client}
		return probe.probeModels(ctx)
	}, AvailableModels)
}

func (p *Provider) clientOptions() []option.RequestOption {
	clientOpts := []option.RequestOption{option.WithAPIKey(p.opts.APIKey)}
	if p.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.opts.BaseURL))
	}
	return clientOpts
}

// Cleanup implements provider.Provider.
func (p *Provider) Cleanup() error {
	p.ResetInit()
	return nil
}
