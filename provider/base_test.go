package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/session"
)

func newTestBase(t *testing.T) *Base {
	t.Helper()
	r := action.NewRegistry()
	assert.NoError(t, action.RegisterBuiltins(r))
	return NewBase("test", r)
}

func TestNewBaseDefaultsNilLogger(t *testing.T) {
	r := action.NewRegistry()
	assert.NoError(t, action.RegisterBuiltins(r))

	// Option funcs that replace the whole options struct must not leave the
	// logger nil.
	b := NewBase("test", r, func(o *BaseOptions) {
		*o = BaseOptions{}
	})

	assert.NotNil(t, b.Logger())
	assert.NotPanics(t, func() {
		b.Logger().Info("initialized", "provider", b.Name())
	})
}

func TestEnsureInitRunsOnce(t *testing.T) {
	b := newTestBase(t)
	calls := 0

	init := func(context.Context) error { calls++; return nil }

	assert.NoError(t, b.EnsureInit(context.Background(), init))
	assert.NoError(t, b.EnsureInit(context.Background(), init))
	assert.Equal(t, 1, calls)
	assert.True(t, b.Initialized())
}

func TestEnsureInitRetriesAfterFailure(t *testing.T) {
	b := newTestBase(t)
	calls := 0

	init := func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection refused")
		}
		return nil
	}

	assert.Error(t, b.EnsureInit(context.Background(), init))
	assert.False(t, b.Initialized())
	assert.NoError(t, b.EnsureInit(context.Background(), init))
	assert.Equal(t, 2, calls)
}

func TestResetInitReopensGuard(t *testing.T) {
	b := newTestBase(t)
	calls := 0
	init := func(context.Context) error { calls++; return nil }

	assert.NoError(t, b.EnsureInit(context.Background(), init))
	b.ResetInit()
	assert.NoError(t, b.EnsureInit(context.Background(), init))
	assert.Equal(t, 2, calls)
}

func TestBuildMessagesInsertsSystemOnce(t *testing.T) {
	b := newTestBase(t)

	msgs := b.BuildMessages("s1", "hello", true)
	assert.Len(t, msgs, 2)
	assert.Equal(t, session.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "RESPONSE FORMAT RULES")
	assert.Equal(t, session.Message{Role: session.RoleUser, Content: "hello"}, msgs[1])

	// Commit the turn, then build again: system must not be duplicated.
	b.CommitTurn("s1", "hello", "hi there", true)
	msgs = b.BuildMessages("s1", "again", true)

	systems := 0
	for _, m := range msgs {
		if m.Role == session.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
	assert.Len(t, msgs, 4) // system, user, assistant, new user
}

func TestTwoTurnHistoryOrder(t *testing.T) {
	b := newTestBase(t)

	b.CommitTurn("s1", "first question", "first answer", true)
	b.CommitTurn("s1", "second question", "second answer", true)

	hist := b.History("s1")
	assert.Len(t, hist, 5)
	assert.Equal(t, session.RoleSystem, hist[0].Role)
	assert.Equal(t, session.Message{Role: session.RoleUser, Content: "first question"}, hist[1])
	assert.Equal(t, session.Message{Role: session.RoleAssistant, Content: "first answer"}, hist[2])
	assert.Equal(t, session.Message{Role: session.RoleUser, Content: "second question"}, hist[3])
	assert.Equal(t, session.Message{Role: session.RoleAssistant, Content: "second answer"}, hist[4])
}

func TestBuildMessagesStripsSystemWhenUnsupported(t *testing.T) {
	b := newTestBase(t)
	b.CommitTurn("s1", "hello", "hi there", true)

	msgs := b.BuildMessages("s1", "again", false)

	for _, m := range msgs {
		assert.NotEqual(t, session.RoleSystem, m.Role)
	}
	assert.Len(t, msgs, 3) // user, assistant, new user
}

func TestBuildMessagesWithoutSession(t *testing.T) {
	b := newTestBase(t)

	msgs := b.BuildMessages("", "one-shot", true)

	assert.Len(t, msgs, 2)
	assert.Equal(t, session.RoleSystem, msgs[0].Role)
}

func TestCommitTurnWithoutSessionIsNoOp(t *testing.T) {
	b := newTestBase(t)

	b.CommitTurn("", "hello", "hi", true)

	assert.Empty(t, b.History("default"))
}

func TestClearHistoryThenRegenerate(t *testing.T) {
	b := newTestBase(t)
	b.CommitTurn("s1", "hello", "hi", true)
	assert.Len(t, b.History("s1"), 3)

	b.ClearHistory("s1")
	assert.Empty(t, b.History("s1"))

	b.CommitTurn("s1", "back", "welcome", true)
	hist := b.History("s1")
	assert.Len(t, hist, 3)
	assert.Equal(t, session.RoleSystem, hist[0].Role)
}
