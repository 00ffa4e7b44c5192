package provider

import (
	"context"
	"sync"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/logging"
	"github.com/themsquared/agent-playground/session"
)

// BaseOptions configure a Base.
type BaseOptions struct {
	// Logger receives provider lifecycle and generation events.
	Logger logging.Logger
	// History is the session store backing History/ClearHistory. A fresh
	// store is created when nil, but callers that run several providers
	// usually keep per-provider stores anyway since histories are scoped to
	// one backend.
	History *session.Store
}

// Base carries the state every backend shares: the session history store, the
// action registry the capability prompt is built from, and a retryable
// one-time initialization guard. Concrete providers embed it.
type Base struct {
	name     string
	history  *session.Store
	registry *action.Registry
	logger   logging.Logger

	initMu      sync.Mutex
	initialized bool
}

// NewBase constructs provider-shared state for the named backend.
func NewBase(name string, registry *action.Registry, optFns ...func(o *BaseOptions)) *Base {
	opts := BaseOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.History == nil {
		opts.History = session.NewStore()
	}
	return &Base{
		name:     name,
		history:  opts.History,
		registry: registry,
		logger:   opts.Logger,
	}
}

// Name returns the backend identifier.
func (b *Base) Name() string { return b.name }

// Logger returns the configured logger.
func (b *Base) Logger() logging.Logger { return b.logger }

// EnsureInit runs fn exactly once across all callers. Unlike sync.Once a
// failed fn leaves the guard open, so a later call retries initialization
// instead of wedging the provider permanently.
func (b *Base) EnsureInit(ctx context.Context, fn func(ctx context.Context) error) error {
	b.initMu.Lock()
	defer b.initMu.Unlock()
	if b.initialized {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	b.initialized = true
	return nil
}

// ResetInit reopens the initialization guard, forcing the next call through
// EnsureInit to re-run. Used by Cleanup so a cleaned-up provider can be
// brought back.
func (b *Base) ResetInit() {
	b.initMu.Lock()
	defer b.initMu.Unlock()
	b.initialized = false
}

// Initialized reports whether initialization has completed.
func (b *Base) Initialized() bool {
	b.initMu.Lock()
	defer b.initMu.Unlock()
	return b.initialized
}

// SystemMessage builds the capability system prompt from the live action
// registry. Registering or removing actions is reflected on the next call.
func (b *Base) SystemMessage() string {
	return action.SystemPrompt(b.registry)
}

// BuildMessages assembles the message list for one request: the stored
// history for sessionID, the capability system message when the target model
// supports one (inserted first, stripped otherwise), and the new user prompt
// last. The stored history is never mutated; the turn is committed separately
// via CommitTurn once the reply is complete.
func (b *Base) BuildMessages(sessionID, prompt string, includeSystem bool) []session.Message {
	var messages []session.Message
	if sessionID != "" {
		messages = b.history.Get(sessionID)
	}

	if includeSystem {
		if len(messages) == 0 || messages[0].Role != session.RoleSystem {
			messages = append([]session.Message{
				{Role: session.RoleSystem, Content: b.SystemMessage()},
			}, messages...)
		}
	} else if len(messages) > 0 && messages[0].Role == session.RoleSystem {
		filtered := messages[:0]
		for _, m := range messages {
			if m.Role != session.RoleSystem {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}

	return append(messages, session.Message{Role: session.RoleUser, Content: prompt})
}

// CommitTurn records a completed prompt/reply exchange in the session
// history. A no-op for one-shot calls with no session id. When includeSystem
// is set the capability system message is persisted as the first history
// entry so later turns replay it.
func (b *Base) CommitTurn(sessionID, prompt, reply string, includeSystem bool) {
	if sessionID == "" {
		return
	}
	system := ""
	if includeSystem {
		system = b.SystemMessage()
	}
	b.history.AppendTurn(sessionID, system,
		session.Message{Role: session.RoleUser, Content: prompt},
		session.Message{Role: session.RoleAssistant, Content: reply},
	)
}

// History returns a copy of the stored history for a session.
func (b *Base) History(sessionID string) []session.Message {
	return b.history.Get(sessionID)
}

// ClearHistory empties the stored history for a session.
func (b *Base) ClearHistory(sessionID string) {
	b.history.Clear(sessionID)
}
