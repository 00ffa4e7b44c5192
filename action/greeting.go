package action

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// GreetingAction generates greeting messages in a handful of languages.
type GreetingAction struct{}

// NewGreetingAction constructs a GreetingAction for registration.
func NewGreetingAction() Action { return &GreetingAction{} }

// Name implements Action.
func (a *GreetingAction) Name() string { return "greeting" }

// Description implements Action.
func (a *GreetingAction) Description() string { return "Generates a greeting message" }

// RequiredParameters implements Action.
func (a *GreetingAction) RequiredParameters() map[string]string {
	return map[string]string{
		"name":     "Name of the person to greet",
		"language": "Language to greet in (en/es/fr), defaults to en",
	}
}

// Examples implements Action.
func (a *GreetingAction) Examples() []Example {
	return []Example{
		{
			Query: "Say hello to Alice",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "greeting",
					"parameters": map[string]any{"name": "Alice"},
				}},
			},
			Description: "Basic greeting",
		},
		{
			Query: "Greet Bob in Spanish",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "greeting",
					"parameters": map[string]any{"name": "Bob", "language": "es"},
				}},
			},
			Description: "Greeting in specific language",
		},
	}
}

// Execute implements Action.
func (a *GreetingAction) Execute(_ context.Context, params map[string]any) *Result {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return &Result{
			Success: false,
			Message: "Missing required parameter",
			Error:   "Missing parameter: name",
		}
	}

	language := "en"
	if lang, ok := params["language"].(string); ok && lang != "" {
		language = lang
	}

	greetings := map[string]string{
		"en": fmt.Sprintf("Hello, %s!", name),
		"es": fmt.Sprintf("¡Hola, %s!", name),
		"fr": fmt.Sprintf("Bonjour, %s!", name),
	}

	greeting, ok := greetings[language]
	if !ok {
		supported := make([]string, 0, len(greetings))
		for lang := range greetings {
			supported = append(supported, lang)
		}
		sort.Strings(supported)
		return &Result{
			Success: false,
			Message: fmt.Sprintf("Unsupported language: %s", language),
			Error:   fmt.Sprintf("Language must be one of: %s", strings.Join(supported, ", ")),
		}
	}

	return &Result{
		Success: true,
		Message: greeting,
		Data: map[string]any{
			"language": language,
			"name":     name,
			"greeting": greeting,
		},
	}
}
