// Package playground provides a high-level façade over the interchangeable
// generative-text backends and the action system. Most applications interact
// with this package by:
//  1. Creating a Playground via New() with a config.Config
//  2. Calling Respond() to generate a reply and execute any action directive
//     it contains, or Provider() for direct backend access
//  3. Calling Cleanup() on shutdown
//
// The façade wires the action registry into every backend so each one
// advertises the same capabilities in its system prompt.
package playground

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/config"
	"github.com/themsquared/agent-playground/logging"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/provider/anthropic"
	"github.com/themsquared/agent-playground/provider/grok"
	"github.com/themsquared/agent-playground/provider/ollama"
	"github.com/themsquared/agent-playground/provider/openai"
)

// Options configure the Playground instance.
type Options struct {
	// Config supplies credentials and connection settings. Defaults to
	// config.Default() with environment fallbacks applied.
	Config *config.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Playground aggregates the configured providers, the action registry and
// the executor behind one entry point.
type Playground struct {
	opts      Options
	registry  *action.Registry
	executor  *action.Executor
	providers map[string]provider.Provider
}

// Result is a completed exchange: the provider response plus the outcome of
// every action the reply requested.
type Result struct {
	*provider.Response
	ActionResults []*action.Result `json:"action_results"`
}

// New creates a Playground with every backend registered. Providers are
// constructed eagerly but initialize lazily, so missing credentials surface
// on first use of the affected backend rather than at startup.
func New(optFns ...func(o *Options)) (*Playground, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		opts.Config = cfg
	}

	registry := action.NewRegistry(func(o *action.RegistryOptions) {
		o.Logger = opts.Logger
	})
	if err := action.RegisterBuiltins(registry); err != nil {
		return nil, err
	}

	cfg := opts.Config

	// A configured OpenWeather key overrides the env-sourced builtin.
	if key := cfg.OpenWeatherAPIKey; key != "" {
		if err := registry.Register(func() action.Action { return action.NewWeatherActionWithKey(key) }); err != nil {
			return nil, err
		}
	}
	providers := map[string]provider.Provider{
		"openai": openai.New(registry, func(o *openai.Options) {
			o.APIKey = cfg.OpenAI.APIKey
			if cfg.OpenAI.Model != "" {
				o.Model = cfg.OpenAI.Model
			}
			o.Logger = opts.Logger
		}),
		"anthropic": anthropic.New(registry, func(o *anthropic.Options) {
			o.APIKey = cfg.Anthropic.APIKey
			if cfg.Anthropic.Model != "" {
				o.Model = cfg.Anthropic.Model
			}
			o.Logger = opts.Logger
		}),
		"grok": grok.New(registry, func(o *grok.Options) {
			o.APIKey = cfg.Grok.APIKey
			if cfg.Grok.Model != "" {
				o.Model = cfg.Grok.Model
			}
			o.Logger = opts.Logger
		}),
		"ollama": ollama.New(registry, func(o *ollama.Options) {
			o.Host = cfg.Ollama.Host
			if cfg.Ollama.Model != "" {
				o.Model = cfg.Ollama.Model
			}
			o.Logger = opts.Logger
		}),
	}

	return &Playground{
		opts:     opts,
		registry: registry,
		executor: action.NewExecutor(registry, func(o *action.ExecutorOptions) {
			o.Logger = opts.Logger
		}),
		providers: providers,
	}, nil
}

// Provider returns the named backend.
func (p *Playground) Provider(name string) (provider.Provider, bool) {
	prov, ok := p.providers[name]
	return prov, ok
}

// ProviderNames returns the registered backend names, sorted.
func (p *Playground) ProviderNames() []string {
	names := make([]string, 0, len(p.providers))
	for name := range p.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry exposes the action registry, e.g. for registering custom actions.
func (p *Playground) Registry() *action.Registry { return p.registry }

// Executor exposes the action executor.
func (p *Playground) Executor() *action.Executor { return p.executor }

// Respond generates a reply from the named backend and, when the reply is an
// action directive, executes the requested actions in order. A reply that is
// not a directive yields an empty ActionResults slice, never an error.
func (p *Playground) Respond(ctx context.Context, providerName, prompt string, optFns ...func(o *provider.GenerateOptions)) (*Result, error) {
	prov, ok := p.providers[providerName]
	if !ok {
		return nil, &UnknownProviderError{Name: providerName, Registered: p.ProviderNames()}
	}

	start := time.Now()
	resp, err := prov.Generate(ctx, prompt, optFns...)
	if rec, ok := p.opts.Logger.(logging.GenerationRecorder); ok {
		if err != nil {
			rec.LogGeneration(providerName, "", 0, 0, time.Since(start), false, err)
		} else {
			rec.LogGeneration(providerName, resp.ModelUsed, resp.Usage["total_tokens"],
				resp.Cost.TotalCost, time.Since(start), true, nil)
		}
	}
	if err != nil {
		return nil, err
	}

	results := []*action.Result{}
	if requests, ok := action.ParseDirective(resp.Content); ok {
		results = p.executor.ExecuteSequence(ctx, requests)
	}

	return &Result{Response: resp, ActionResults: results}, nil
}

// Cleanup releases resources held by every provider, continuing past
// individual failures and returning them joined.
func (p *Playground) Cleanup() error {
	var errs []error
	for name, prov := range p.providers {
		if err := prov.Cleanup(); err != nil {
			p.opts.Logger.Warn("Provider cleanup failed", "provider", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UnknownProviderError reports a request for a backend that is not
// registered.
type UnknownProviderError struct {
	Name       string
	Registered []string
}

// Error implements the error interface.
func (e *UnknownProviderError) Error() string {
	return "unknown provider \"" + e.Name + "\""
}
