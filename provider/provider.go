package provider

import (
	"context"
	"time"

	"github.com/themsquared/agent-playground/session"
)

// Response is the normalized result of a completed generation, identical in
// shape across backends so callers never branch per vendor.
type Response struct {
	// Content is the assistant text of the reply.
	Content string `json:"content"`
	// Raw preserves the unmodified backend payload for debugging.
	Raw any `json:"raw_response"`
	// ModelUsed is the model that actually served the request, which may
	// differ from the requested model after a fallback during Initialize.
	ModelUsed string `json:"model_used"`
	// Usage holds backend-specific counters: token counts for hosted
	// backends, nanosecond durations for local ones.
	Usage map[string]int64 `json:"usage"`
	// Cost is the estimated spend for this call in USD.
	Cost Cost `json:"cost"`
}

// GenerateOptions tune a single Generate or Stream call.
type GenerateOptions struct {
	// MaxTokens caps the completion length. Zero means backend default.
	MaxTokens int64
	// Temperature controls sampling randomness. Ignored by models that do
	// not support it.
	Temperature float64
	// SessionID selects the conversation history to extend. Empty means a
	// one-shot exchange that leaves no history behind.
	SessionID string
	// Timeout bounds the whole exchange. Zero applies no deadline beyond
	// what the caller's context already carries.
	Timeout time.Duration
}

// NewGenerateOptions applies optFns over the defaults.
func NewGenerateOptions(optFns ...func(o *GenerateOptions)) GenerateOptions {
	opts := GenerateOptions{Temperature: 0.7}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// CallContext derives the context governing one exchange, applying the
// per-call timeout when one is set. The cancel func must be called when the
// exchange finishes.
func (o GenerateOptions) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}

// Provider is the uniform surface every generative-text backend exposes.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the backend identifier ("openai", "anthropic", "grok",
	// "ollama").
	Name() string

	// Model returns the currently selected model id.
	Model() string

	// SetModel switches the model used for subsequent calls.
	SetModel(model string)

	// Initialize validates credentials, builds the underlying client and
	// resolves the model catalog. Called lazily by Generate and Stream when
	// needed; a failed Initialize may be retried.
	Initialize(ctx context.Context) error

	// Generate produces a complete reply for prompt, extending the session
	// history named in the options.
	Generate(ctx context.Context, prompt string, optFns ...func(o *GenerateOptions)) (*Response, error)

	// Stream produces the reply incrementally. Fragments arrive on the
	// first channel; a terminal error, if any, on the second. Both channels
	// are closed when the stream ends. History is committed only after the
	// full reply has been produced.
	Stream(ctx context.Context, prompt string, optFns ...func(o *GenerateOptions)) (<-chan string, <-chan error)

	// ListModels returns model id -> description for this backend. It is
	// best-effort: on probe failure a static catalog is returned.
	ListModels(ctx context.Context) map[string]string

	// History returns a copy of the conversation history for a session.
	History(sessionID string) []session.Message

	// ClearHistory empties the conversation history for a session.
	ClearHistory(sessionID string)

	// Cleanup releases backend resources. Safe to call more than once.
	Cleanup() error
}
