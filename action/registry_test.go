package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAction struct {
	name string
	desc string
}

func (a *fakeAction) Name() string                           { return a.name }
func (a *fakeAction) Description() string                    { return a.desc }
func (a *fakeAction) RequiredParameters() map[string]string  { return map[string]string{"x": "x"} }
func (a *fakeAction) Examples() []Example                    { return nil }
func (a *fakeAction) Execute(_ context.Context, _ map[string]any) *Result {
	return &Result{Success: true, Message: "ok from " + a.name}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	err := r.Register(func() Action { return &fakeAction{name: "echo", desc: "echoes"} })
	assert.NoError(t, err)

	ctor, err := r.Get("echo")
	assert.NoError(t, err)
	assert.Equal(t, "echo", ctor().Name())
}

func TestRegistryRejectsInvalidActions(t *testing.T) {
	r := NewRegistry()

	err := r.Register(func() Action { return &fakeAction{name: "", desc: "no name"} })
	assert.Error(t, err)

	err = r.Register(func() Action { return &fakeAction{name: "noDesc", desc: ""} })
	assert.Error(t, err)

	assert.Empty(t, r.Names())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()

	assert.NoError(t, r.Register(func() Action { return &fakeAction{name: "dup", desc: "first"} }))
	assert.NoError(t, r.Register(func() Action { return &fakeAction{name: "dup", desc: "second"} }))

	ctor, err := r.Get("dup")
	assert.NoError(t, err)
	assert.Equal(t, "second", ctor().Description())
	assert.Len(t, r.Names(), 1)
}

func TestRegistryGetUnknownListsAvailable(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Register(func() Action { return &fakeAction{name: "echo", desc: "echoes"} }))

	_, err := r.Get("missing")
	assert.Error(t, err)

	var nfe *NotFoundError
	assert.ErrorAs(t, err, &nfe)
	assert.Equal(t, "missing", nfe.Name)
	assert.Contains(t, err.Error(), "echo")
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		name := n
		assert.NoError(t, r.Register(func() Action { return &fakeAction{name: name, desc: name} }))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, RegisterBuiltins(r))
	assert.Equal(t, []string{"get_weather", "greeting", "template"}, r.Names())
}
