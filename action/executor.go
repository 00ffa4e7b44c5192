package action

import (
	"context"
	"fmt"
	"time"

	"github.com/themsquared/agent-playground/logging"
)

// Request is one action invocation parsed out of a model reply.
type Request struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// Executor validates and runs actions against a Registry. It converts every
// failure mode (missing name, unknown action, execution panic) into a failure
// Result; no call path returns or raises an error to the caller.
type Executor struct {
	registry *Registry
	logger   logging.Logger
}

// ExecutorOptions configure Executor construction.
type ExecutorOptions struct {
	Logger logging.Logger
}

// NewExecutor constructs an Executor bound to the given registry.
func NewExecutor(registry *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Executor{registry: registry, logger: opts.Logger}
}

// ExecuteAction runs a single action request and always returns a Result.
func (e *Executor) ExecuteAction(ctx context.Context, req Request) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action.execute.panic", "name", req.Name, "panic", fmt.Sprintf("%v", r))
			result = &Result{
				Success: false,
				Message: "Action execution failed",
				Error:   fmt.Sprintf("%v", r),
			}
		}
	}()

	if req.Name == "" {
		return &Result{
			Success: false,
			Message: "Missing action name",
			Error:   `action request must include a "name" field`,
		}
	}

	ctor, err := e.registry.Get(req.Name)
	if err != nil {
		return &Result{
			Success: false,
			Message: "Invalid action",
			Error:   err.Error(),
		}
	}

	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}

	result = ctor().Execute(ctx, params)
	if result == nil {
		result = &Result{
			Success: false,
			Message: "Action execution failed",
			Error:   fmt.Sprintf("action %q returned no result", req.Name),
		}
	}

	if rec, ok := e.logger.(logging.ActionCallRecorder); ok {
		rec.LogActionCall(req.Name, time.Since(start), result.Success, result.Error)
	} else {
		e.logger.Debug("action.execute.done",
			"name", req.Name,
			"success", result.Success,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return result
}

// ExecuteSequence runs the requests in order, sequentially, and returns one
// result per request in the same order. Actions may depend on side effects of
// earlier ones, so there is no implicit parallelism, and a failing action
// never stops the sequence.
func (e *Executor) ExecuteSequence(ctx context.Context, reqs []Request) []*Result {
	results := make([]*Result, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, e.ExecuteAction(ctx, req))
	}
	return results
}

// AvailableActions returns the full documentation contract of every
// registered action, keyed by name.
func (e *Executor) AvailableActions() map[string]Documentation {
	docs := make(map[string]Documentation)
	for name, ctor := range e.registry.List() {
		docs[name] = Describe(ctor())
	}
	return docs
}
