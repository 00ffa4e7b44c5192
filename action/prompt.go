package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt builds the capability description providers send as the system
// message: every registered action's name, description, parameters and
// examples, plus the strict instruction that action replies use the
// {"actions": [...]} shape and no other. It reads the live registry on every
// call so registry changes are reflected in subsequent generations.
func SystemPrompt(r *Registry) string {
	names := r.Names()
	actions := r.List()

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant that MUST use actions to perform tasks.\n")
	b.WriteString("Available actions: " + strings.Join(quoted, ", ") + "\n\n")
	b.WriteString("IMPORTANT: You MUST ALWAYS respond with an action when performing a task. ")
	b.WriteString("NEVER respond with plain text or custom JSON formats.\n\n")
	b.WriteString("When asked what you can do, respond naturally but ALWAYS include ALL capabilities:\n\n")
	b.WriteString("\"I can help you with these things:\n\n")

	for i, name := range names {
		doc := Describe(actions[name]())
		fmt.Fprintf(&b, "%d. %s\n", i+1, doc.Description)
		fmt.Fprintf(&b, "   Required parameters: %s\n", formatParameters(doc.RequiredParameters))
		for _, ex := range doc.Examples {
			fmt.Fprintf(&b, "   Example query: %q\n", ex.Query)
			fmt.Fprintf(&b, "   Example response: %s\n", compactJSON(ex.Response))
		}
		b.WriteString("\n")
	}

	b.WriteString("Let me know which of these you'd like help with!\"\n\n")
	b.WriteString(`RESPONSE FORMAT RULES:
1. You MUST ALWAYS respond with the exact JSON format below when performing actions:
{
  "actions": [
    {
      "name": "<exact_action_name>",
      "parameters": {}
    }
  ]
}
2. NEVER respond with plain text or custom JSON formats
3. NEVER modify the "actions" format - it must be exactly as shown
4. ALWAYS include ALL required parameters for the action
5. Use the exact action names as listed above
6. You can chain multiple actions in the "actions" array if needed

Example: If someone says "Say hi to Bob in Spanish", you MUST respond with:
{
  "actions": [
    {
      "name": "greeting",
      "parameters": {
        "name": "Bob",
        "language": "es"
      }
    }
  ]
}`)

	return b.String()
}

func formatParameters(params map[string]string) string {
	if len(params) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// Stable output so repeated prompt builds are identical.
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%s)", k, params[k])
	}
	return strings.Join(parts, ", ")
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
