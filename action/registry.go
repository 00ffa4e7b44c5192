package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/themsquared/agent-playground/logging"
)

// Constructor instantiates a fresh Action. The Registry stores constructors
// rather than instances so each invocation runs on a new, stateless value.
type Constructor func() Action

// NotFoundError reports a lookup for an unregistered action name. The error
// message enumerates the currently registered names to aid diagnosis.
type NotFoundError struct {
	Name       string
	Registered []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("action %q not found. Available actions: %v", e.Name, e.Registered)
}

// Registry is a concurrency-safe mapping from action name to constructor.
// Registration is expected to happen once at process start through static
// registration (RegisterBuiltins); re-registering a name overwrites the
// previous entry, which is logged as a warning rather than treated as an
// error.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Constructor
	logger  logging.Logger
}

// RegistryOptions configure Registry construction.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Registry{actions: make(map[string]Constructor), logger: opts.Logger}
}

// Register validates the action's static metadata and inserts (or overwrites)
// its constructor. Name and description are a registration-time contract:
// a missing one fails here, not at execution time.
func (r *Registry) Register(ctor Constructor) error {
	a := ctor()
	if a.Name() == "" {
		return fmt.Errorf("action must have a name")
	}
	if a.Description() == "" {
		return fmt.Errorf("action %q must have a description", a.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[a.Name()]; exists {
		r.logger.Warn("action.register.overwrite", "name", a.Name())
	}
	r.actions[a.Name()] = ctor
	return nil
}

// Get returns the constructor for name or a *NotFoundError listing the
// registered names.
func (r *Registry) Get(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.actions[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Registered: r.namesLocked()}
	}
	return ctor, nil
}

// List returns a defensive copy of the name -> constructor mapping. Callers
// never observe later registry mutation through a returned snapshot.
func (r *Registry) List() map[string]Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Constructor, len(r.actions))
	for name, ctor := range r.actions {
		out[name] = ctor
	}
	return out
}

// Names returns the sorted names of all registered actions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins statically registers the built-in action set. It is
// idempotent: re-invocation simply re-overwrites identical entries.
func RegisterBuiltins(r *Registry) error {
	for _, ctor := range []Constructor{
		NewGreetingAction,
		NewWeatherAction,
		NewTemplateAction,
	} {
		if err := r.Register(ctor); err != nil {
			return err
		}
	}
	return nil
}
