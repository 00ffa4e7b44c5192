package action

import (
	"encoding/json"
	"strings"
)

// directive is the wire shape a model is instructed to reply with when it
// wants work performed: {"actions": [{"name": ..., "parameters": {...}}]}.
type directive struct {
	Actions []Request `json:"actions"`
}

// ParseDirective extracts action requests from a model reply. A reply that is
// not valid JSON, or is JSON without an "actions" array, is a plain-text
// reply: the second return value is false and no error is ever produced.
func ParseDirective(content string) ([]Request, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed[0] != '{' {
		return nil, false
	}

	var d directive
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
		return nil, false
	}
	if len(d.Actions) == 0 {
		return nil, false
	}
	return d.Actions, true
}
