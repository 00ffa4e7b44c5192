// Package action implements the named, self-describing units of work a model
// reply can invoke. Every action documents its parameter contract and example
// invocations so providers can teach models how to call it, and resolves to a
// Result that reports success or failure without ever raising past the
// executor.
package action

import "context"

// Action defines the interface every action variant must implement.
//
// Actions are registered with a Registry and instantiated per invocation by
// the Executor, so implementations must be stateless across calls (per-call
// state belongs in Execute locals). Execute may block on external I/O but must
// always resolve to a Result; the Executor converts panics into failure
// Results as a last line of defense.
type Action interface {
	// Name returns the unique identifier for this action (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this action does.
	// It is surfaced to models through the capability description.
	Description() string

	// RequiredParameters maps each parameter name to a human description,
	// used for both documentation and validation.
	RequiredParameters() map[string]string

	// Examples returns documented example invocations. They are never executed.
	Examples() []Example

	// Execute runs the action with the given parameters.
	Execute(ctx context.Context, params map[string]any) *Result
}

// Result is the immutable outcome of one action execution. Message is always
// present; Data only on success paths that produce structured output; Error
// only on failure.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Example documents one way a user query maps to an action directive.
type Example struct {
	Query       string         `json:"query"`
	Response    map[string]any `json:"response"`
	Description string         `json:"description,omitempty"`
}

// Documentation is the full self-description of an action, consumed by
// callers building UIs or model-facing prompts.
type Documentation struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	RequiredParameters map[string]string `json:"required_parameters"`
	Examples           []Example         `json:"examples"`
}

// Describe builds the Documentation for an action instance.
func Describe(a Action) Documentation {
	params := a.RequiredParameters()
	if params == nil {
		params = map[string]string{}
	}
	examples := a.Examples()
	if examples == nil {
		examples = []Example{}
	}
	return Documentation{
		Name:               a.Name(),
		Description:        a.Description(),
		RequiredParameters: params,
		Examples:           examples,
	}
}
