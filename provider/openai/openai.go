// Package openai implements provider.Provider against the OpenAI Chat
// Completions API using the official Go SDK. It handles per-model quirks:
// some models take no system message or temperature, and a few support
// native JSON mode, which is enabled automatically since action directives
// are JSON.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/session"
)

// Model identifiers for the chat models known at build time.
const (
	GPT4Vision     = "gpt-4-vision-preview"
	GPT4Turbo      = "gpt-4-0125-preview"
	GPT4           = "gpt-4-1106-preview"
	GPT4Stable     = "gpt-4"
	GPT35Turbo     = "gpt-3.5-turbo-0125"
	GPT35TurboAuto = "gpt-3.5-turbo"
	GPT35Turbo16K  = "gpt-3.5-turbo-16k"
)

// AvailableModels is the static catalog used when the live model list cannot
// be fetched.
var AvailableModels = map[string]string{
	GPT4Vision:     "Latest GPT-4 model with vision capabilities",
	GPT4Turbo:      "Latest GPT-4 Turbo (Jan 2024) - Fastest and most capable model",
	GPT4:           "GPT-4 Turbo with improved JSON mode and system prompts",
	GPT4Stable:     "Stable GPT-4 release - Most reliable but may be slower",
	GPT35Turbo:     "Latest GPT-3.5 Turbo (Jan 2024) - Best price/performance ratio",
	GPT35TurboAuto: "Auto-updating stable GPT-3.5 Turbo",
	GPT35Turbo16K:  "Legacy GPT-3.5 with 16k context window",
}

// Model families that accept a system message / a temperature parameter.
// Matched by prefix so dated snapshots of these families qualify too.
var (
	systemSupport = []string{
		"gpt-4", "gpt-4-0125-preview", "gpt-4-1106-preview", "gpt-4-vision-preview",
		"gpt-3.5-turbo", "gpt-3.5-turbo-0125", "gpt-3.5-turbo-16k",
	}
	temperatureSupport = systemSupport
)

// Models with reliable native JSON mode.
var jsonModeModels = map[string]bool{
	GPT4:       true,
	GPT4Turbo:  true,
	GPT35Turbo: true,
}

// sharedCatalog caches the fetched model list across all Provider instances.
var sharedCatalog = provider.NewCatalog()

// Options configure the OpenAI provider.
type Options struct {
	provider.BaseOptions
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string
	// Model is the initially selected model.
	Model string
	// BaseURL overrides the API endpoint, for OpenAI-compatible servers and
	// tests. Empty means the public API.
	BaseURL string
	// Catalog overrides the process-wide model cache, mainly for tests.
	Catalog *provider.Catalog
}

// Provider drives the OpenAI Chat Completions API.
type Provider struct {
	*provider.Base

	opts   Options
	client openai.Client

	mu        sync.RWMutex
	model     string
	available map[string]string
}

var _ provider.Provider = (*Provider)(nil)

// New constructs an uninitialized OpenAI provider. The client is built and
// the model catalog resolved on first use.
func New(registry *action.Registry, optFns ...func(o *Options)) *Provider {
	opts := Options{Model: GPT4Turbo, Catalog: sharedCatalog}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Catalog == nil {
		opts.Catalog = sharedCatalog
	}
	base := provider.NewBase("openai", registry, func(o *provider.BaseOptions) {
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

// Initialize implements provider.Provider. It builds the SDK client, resolves
// the model catalog and falls back to the first available model when the
// selected one is absent.
func (p *Provider) Initialize(ctx context.Context) error {
	return p.EnsureInit(ctx, func(ctx context.Context) error {
		if p.opts.APIKey == "" {
			return &provider.ConfigurationError{
				Provider: "openai",
				Reason:   "API key is required, set OPENAI_API_KEY",
			}
		}
		p.client = openai.NewClient(p.clientOptions()...)

		available := p.opts.Catalog.Load(func() (map[string]string, error) {
			return p.fetchModels(ctx)
		}, AvailableModels)

		p.mu.Lock()
		defer p.mu.Unlock()
		p.available = available
		if _, ok := available[p.model]; !ok {
			names := sortedKeys(available)
			if len(names) == 0 {
				return &provider.NoModelsError{Provider: "openai"}
			}
			p.Logger().Warn("Selected model not available, falling back",
				"provider", "openai", "requested", p.model, "using", names[0])
			p.model = names[0]
		}
		return nil
	})
}

// fetchModels lists the chat-capable models from the API and derives a short
// description for each from its id.
func (p *Provider) fetchModels(ctx context.Context) (map[string]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		p.Logger().Warn("Error fetching OpenAI models", "error", err)
		return nil, &provider.BackendError{Provider: "openai", Op: "list-models", Err: err}
	}

	models := make(map[string]string)
	for _, m := range page.Data {
		if !strings.HasPrefix(m.ID, "gpt-4") && !strings.HasPrefix(m.ID, "gpt-3.5") && !strings.HasPrefix(m.ID, "o") {
			continue
		}
		models[m.ID] = describeModel(m.ID)
	}
	return models, nil
}

func describeModel(id string) string {
	var parts []string
	if strings.Contains(id, "gpt-4") {
		parts = append(parts, "GPT-4")
	} else if strings.Contains(id, "gpt-3.5") {
		parts = append(parts, "GPT-3.5")
	}
	if strings.Contains(id, "vision") {
		parts = append(parts, "Vision capable")
	}
	if strings.Contains(id, "turbo") {
		parts = append(parts, "Turbo version")
	}
	if strings.Contains(id, "16k") {
		parts = append(parts, "16k context")
	} else if strings.Contains(id, "32k") {
		parts = append(parts, "32k context")
	}
	if strings.Contains(id, "preview") {
		parts = append(parts, "Preview")
	}
	return strings.Join(parts, " - ")
}

func supportsAny(model string, families []string) bool {
	for _, f := range families {
		if strings.HasPrefix(model, f) {
			return true
		}
	}
	return false
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
	includeSystem := supportsAny(model, systemSupport)
	messages := p.BuildMessages(opts.SessionID, prompt, includeSystem)
	params := p.buildParams(model, messages, opts)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &provider.BackendError{Provider: "openai", Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.BackendError{
			Provider: "openai", Op: "generate", Err: fmt.Errorf("no choices returned"),
		}
	}

	content := resp.Choices[0].Message.Content
	p.CommitTurn(opts.SessionID, prompt, content, includeSystem)

	return &provider.Response{
		Content:   content,
		Raw:       resp,
		ModelUsed: model,
		Usage: map[string]int64{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
		Cost: provider.CalculateCost("openai", model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}

// Stream implements provider.Provider. Fragments are emitted as they arrive;
// the turn is committed to history only after the stream completes cleanly.
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
		includeSystem := supportsAny(model, systemSupport)
		messages := p.BuildMessages(opts.SessionID, prompt, includeSystem)
		params := p.buildParams(model, messages, opts)

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
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
			errCh <- &provider.BackendError{Provider: "openai", Op: "stream", Err: err}
			return
		}

		p.CommitTurn(opts.SessionID, prompt, full.String(), includeSystem)
	}()

	return out, errCh
}

func (p *Provider) buildParams(model string, messages []session.Message, opts provider.GenerateOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toChatMessages(messages),
	}
	if supportsAny(model, temperatureSupport) {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	if jsonModeModels[model] {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
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

// ListModels implements provider.Provider. Without an API key or on fetch
// failure it returns the static catalog.
func (p *Provider) ListModels(ctx context.Context) map[string]string {
	if p.opts.APIKey == "" {
		return copyCatalog(AvailableModels)
	}
	client := openai.NewClient(p.clientOptions()...)
	return p.opts.Catalog.Load(func() (map[string]string, error) {
		probe := &Provider{Base: p.Base, opts: p.opts, client: client}
		return probe.fetchModels(ctx)
	}, AvailableModels)
}

func (p *Provider) clientOptions() []option.RequestOption {
	clientOpts := []option.RequestOption{option.WithAPIKey(p.opts.APIKey)}
	if p.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.opts.BaseURL))
	}
	return clientOpts
}

// Cleanup implements provider.Provider. The SDK client holds no connection
// state that needs closing; the init guard is reopened so the provider can be
// reused after cleanup.
func (p *Provider) Cleanup() error {
	p.ResetInit()
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyCatalog(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
