package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	playground "github.com/themsquared/agent-playground"
	"github.com/themsquared/agent-playground/config"
	"github.com/themsquared/agent-playground/evaluation"
	"github.com/themsquared/agent-playground/server"
)

func newEvaluationServer(t *testing.T, backend *httptest.Server) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Ollama.Host = backend.URL
	cfg.Ollama.Model = "mistral"

	pg, err := playground.New(func(o *playground.Options) {
		o.Config = cfg
	})
	assert.NoError(t, err)

	store, err := evaluation.OpenStore(filepath.Join(t.TempDir(), "playground.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(server.New(pg, cfg, func(o *server.Options) {
		o.EvaluationStore = store
	}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestEvaluateRunsSelectedModels(t *testing.T) {
	backend := newFakeOllama(t, "Go is a language.")
	defer backend.Close()

	srv := newEvaluationServer(t, backend)
	resp := postJSON(t, srv.URL+"/api/evaluation/evaluate",
		`{"name": "comparison", "questions": ["What is Go?"], "models": [{"provider": "ollama", "modelId": "mistral"}]}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var test evaluation.Test
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&test))
	assert.Equal(t, "comparison", test.Name)
	assert.Len(t, test.Results, 1)
	assert.Equal(t, "Go is a language.", test.Results[0].Response)
	assert.Equal(t, "mistral", test.Results[0].ModelID)
}

func TestEvaluateValidatesRequest(t *testing.T) {
	backend := newFakeOllama(t, "hi")
	defer backend.Close()

	srv := newEvaluationServer(t, backend)

	for body, message := range map[string]string{
		`{"name": "t", "models": [{"provider": "ollama", "modelId": "m"}]}`: "no questions provided",
		`{"questions": ["q"], "models": [{"provider": "ollama"}]}`:          "test name is required",
		`{"name": "t", "questions": ["q"]}`:                                "no models selected",
	} {
		resp := postJSON(t, srv.URL+"/api/evaluation/evaluate", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var got map[string]string
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, message, got["error"])
		resp.Body.Close()
	}
}

func TestEvaluationSaveAndResults(t *testing.T) {
	backend := newFakeOllama(t, "hi")
	defer backend.Close()

	srv := newEvaluationServer(t, backend)
	saved := postJSON(t, srv.URL+"/api/evaluation/save",
		`{"name": "comparison", "questions": ["q1"], "total_cost": 0.01,
		  "results": [{"provider": "ollama", "modelId": "mistral", "questionIndex": 0, "response": "a1", "cost": 0.01}]}`)
	defer saved.Body.Close()

	assert.Equal(t, http.StatusOK, saved.StatusCode)

	var ack map[string]string
	assert.NoError(t, json.NewDecoder(saved.Body).Decode(&ack))
	assert.Equal(t, "Evaluation saved successfully", ack["message"])
	assert.NotEmpty(t, ack["test_id"])

	results, err := http.Get(srv.URL + "/api/evaluation/results")
	assert.NoError(t, err)
	defer results.Body.Close()

	var tests []evaluation.Test
	assert.NoError(t, json.NewDecoder(results.Body).Decode(&tests))
	assert.Len(t, tests, 1)
	assert.Equal(t, ack["test_id"], tests[0].ID)
	assert.Len(t, tests[0].Results, 1)

	csv, err := http.Get(srv.URL + "/api/evaluation/csv/" + ack["test_id"])
	assert.NoError(t, err)
	defer csv.Body.Close()
	assert.Equal(t, http.StatusOK, csv.StatusCode)
	assert.Equal(t, "text/csv", csv.Header.Get("Content-Type"))
}

func TestEvaluationWithoutStore(t *testing.T) {
	backend := newFakeOllama(t, "hi")
	defer backend.Close()

	srv, _ := newTestServer(t, backend)
	resp, err := http.Get(srv.URL + "/api/evaluation/results")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
