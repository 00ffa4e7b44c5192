package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptListsRegisteredActions(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, RegisterBuiltins(r))

	prompt := SystemPrompt(r)

	assert.Contains(t, prompt, `Available actions: "get_weather", "greeting", "template"`)
	assert.Contains(t, prompt, "1. Get current weather information for a location")
	assert.Contains(t, prompt, "2. Generates a greeting message")
	assert.Contains(t, prompt, "Required parameters: language (Language to greet in (en/es/fr), defaults to en), name (Name of the person to greet)")
	assert.Contains(t, prompt, "RESPONSE FORMAT RULES")
	assert.Contains(t, prompt, `"actions"`)
	assert.Contains(t, prompt, "Say hi to Bob in Spanish")
}

func TestSystemPromptReflectsLiveRegistry(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Register(func() Action { return &fakeAction{name: "echo", desc: "echoes input"} }))

	before := SystemPrompt(r)
	assert.Contains(t, before, `Available actions: "echo"`+"\n")
	assert.Contains(t, before, "1. echoes input")
	assert.NotContains(t, before, "Generates a greeting message")

	assert.NoError(t, r.Register(NewGreetingAction))

	after := SystemPrompt(r)
	assert.Contains(t, after, `Available actions: "echo", "greeting"`)
	assert.Contains(t, after, "2. Generates a greeting message")
}
