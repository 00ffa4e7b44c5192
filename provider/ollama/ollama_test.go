package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/provider"
	"github.com/themsquared/agent-playground/session"
)

func newFakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models": [
			{"name": "mistral:latest", "details": {"format": "gguf", "family": "llama", "parameter_size": "7B"}},
			{"name": "codellama:13b", "details": {"format": "gguf", "family": "llama", "parameter_size": "13B"}}
		]}`)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Stream {
			for _, word := range strings.SplitAfter(reply, " ") {
				chunk := chatResponse{Model: req.Model, Message: chatMessage{Role: "assistant", Content: word}}
				assert.NoError(t, json.NewEncoder(w).Encode(chunk))
			}
			assert.NoError(t, json.NewEncoder(w).Encode(chatResponse{
				Model: req.Model, Done: true, TotalDuration: 1200, EvalDuration: 800,
			}))
			return
		}
		assert.NoError(t, json.NewEncoder(w).Encode(chatResponse{
			Model:              req.Model,
			Message:            chatMessage{Role: "assistant", Content: reply},
			Done:               true,
			TotalDuration:      1500,
			PromptEvalDuration: 300,
			EvalDuration:       900,
		}))
	})
	return httptest.NewServer(mux)
}

func newTestProvider(t *testing.T, srv *httptest.Server, model string) *Provider {
	t.Helper()
	r := action.NewRegistry()
	assert.NoError(t, action.RegisterBuiltins(r))
	return New(r, func(o *Options) {
		o.Host = srv.URL
		o.Model = model
	})
}

func TestInitializeDetectsModels(t *testing.T) {
	srv := newFakeOllama(t, "hello")
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	assert.NoError(t, p.Initialize(context.Background()))
	assert.Equal(t, "mistral", p.Model())

	models := p.ListModels(context.Background())
	assert.Contains(t, models, "mistral")
	assert.Contains(t, models, "codellama")
	assert.Contains(t, models["mistral"], "Size: 7B")
}

func TestInitializeFallsBackToInstalledModel(t *testing.T) {
	srv := newFakeOllama(t, "hello")
	defer srv.Close()

	p := newTestProvider(t, srv, "not-installed")
	assert.NoError(t, p.Initialize(context.Background()))
	// First installed model in sorted order.
	assert.Equal(t, "codellama", p.Model())
}

func TestInitializeFailsWhenServerDown(t *testing.T) {
	srv := newFakeOllama(t, "hello")
	srv.Close()

	p := newTestProvider(t, srv, "mistral")
	err := p.Initialize(context.Background())
	assert.Error(t, err)

	var cfgErr *provider.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ollama", cfgErr.Provider)
}

func TestGenerate(t *testing.T) {
	srv := newFakeOllama(t, `{"actions": [{"name": "greeting", "parameters": {"name": "Bob"}}]}`)
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	resp, err := p.Generate(context.Background(), "say hi to Bob", func(o *provider.GenerateOptions) {
		o.SessionID = "s1"
	})

	assert.NoError(t, err)
	assert.Contains(t, resp.Content, `"greeting"`)
	assert.Equal(t, "mistral", resp.ModelUsed)
	assert.Equal(t, int64(1500), resp.Usage["total_duration"])
	assert.Equal(t, provider.Cost{}, resp.Cost)

	hist := p.History("s1")
	assert.Len(t, hist, 3)
	assert.Equal(t, session.RoleSystem, hist[0].Role)
	assert.Equal(t, "say hi to Bob", hist[1].Content)
	assert.Equal(t, resp.Content, hist[2].Content)
}

func TestStreamConcatenationMatchesHistory(t *testing.T) {
	srv := newFakeOllama(t, "the quick brown fox")
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	out, errCh := p.Stream(context.Background(), "tell me", func(o *provider.GenerateOptions) {
		o.SessionID = "s1"
	})

	var full strings.Builder
	for fragment := range out {
		full.WriteString(fragment)
	}
	assert.NoError(t, <-errCh)
	assert.Equal(t, "the quick brown fox", full.String())

	hist := p.History("s1")
	assert.Equal(t, "the quick brown fox", hist[len(hist)-1].Content)
}

func TestStreamAbandonedLeavesNoHistory(t *testing.T) {
	srv := newFakeOllama(t, "a long reply with many fragments to cancel")
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, errCh := p.Stream(ctx, "tell me", func(o *provider.GenerateOptions) {
		o.SessionID = "abandoned"
	})
	for range out {
	}
	assert.Error(t, <-errCh)
	assert.Empty(t, p.History("abandoned"))
}

func TestClearHistory(t *testing.T) {
	srv := newFakeOllama(t, "hi")
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	_, err := p.Generate(context.Background(), "hello", func(o *provider.GenerateOptions) {
		o.SessionID = "s1"
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, p.History("s1"))

	p.ClearHistory("s1")
	assert.Empty(t, p.History("s1"))
}

func TestCleanupAllowsReinitialize(t *testing.T) {
	srv := newFakeOllama(t, "hi")
	defer srv.Close()

	p := newTestProvider(t, srv, "mistral")
	assert.NoError(t, p.Initialize(context.Background()))
	assert.NoError(t, p.Cleanup())
	assert.False(t, p.Initialized())
	assert.NoError(t, p.Initialize(context.Background()))
}
