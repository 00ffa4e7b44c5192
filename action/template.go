package action

import (
	"context"
	"fmt"
)

// TemplateAction shows the structure of an action implementation. Copy this
// file and adjust name, description, parameters, examples and Execute to
// create a new action, then add its constructor to RegisterBuiltins.
type TemplateAction struct{}

// NewTemplateAction constructs a TemplateAction for registration.
func NewTemplateAction() Action { return &TemplateAction{} }

// Name implements Action.
func (a *TemplateAction) Name() string { return "template" }

// Description implements Action.
func (a *TemplateAction) Description() string {
	return "Template action showing the structure of an action"
}

// RequiredParameters implements Action.
func (a *TemplateAction) RequiredParameters() map[string]string {
	return map[string]string{
		"param1": "Description of the first parameter",
		"param2": "Description of the second parameter (if needed)",
	}
}

// Examples implements Action.
func (a *TemplateAction) Examples() []Example {
	return []Example{
		{
			Query: "Example of how a user might request this action",
			Response: map[string]any{
				"actions": []any{map[string]any{
					"name":       "template",
					"parameters": map[string]any{"param1": "example_value1", "param2": "example_value2"},
				}},
			},
			Description: "Description of what this example demonstrates",
		},
	}
}

// Execute implements Action.
func (a *TemplateAction) Execute(_ context.Context, params map[string]any) *Result {
	param1, ok := params["param1"].(string)
	if !ok || param1 == "" {
		return &Result{
			Success: false,
			Message: "Missing required parameter",
			Error:   "Missing parameter: param1",
		}
	}

	param2 := "default_value"
	if p, ok := params["param2"].(string); ok && p != "" {
		param2 = p
	}

	processed := fmt.Sprintf("Processed %s with %s", param1, param2)

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Action completed successfully: %s", processed),
		Data: map[string]any{
			"result": processed,
			"param1": param1,
			"param2": param2,
		},
	}
}
