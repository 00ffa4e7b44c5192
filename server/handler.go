package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	playground "github.com/themsquared/agent-playground"
	"github.com/themsquared/agent-playground/action"
	"github.com/themsquared/agent-playground/config"
	"github.com/themsquared/agent-playground/evaluation"
	"github.com/themsquared/agent-playground/logging"
	"github.com/themsquared/agent-playground/provider"
)

// Handler serves the playground API.
type Handler struct {
	playground *playground.Playground
	config     *config.Config
	runner     *evaluation.Runner
	store      *evaluation.Store
	logger     logging.Logger
}

// Attach registers the API routes on r.
func (h *Handler) Attach(r chi.Router) {
	r.Post("/generate", h.handleGenerate)
	r.Post("/stream", h.handleStream)

	r.Get("/models", h.handleModels)

	r.Get("/actions", h.handleActions)
	r.Post("/execute_actions", h.handleExecuteActions)

	r.Get("/history", h.handleHistory)
	r.Post("/history/clear", h.handleHistoryClear)

	r.Get("/settings", h.handleSettings)

	r.Route("/evaluation", func(r chi.Router) {
		r.Post("/evaluate", h.handleEvaluate)
		r.Post("/save", h.handleEvaluationSave)
		r.Get("/results", h.handleEvaluationResults)
		r.Get("/csv/{id}", h.handleEvaluationCSV)
	})
}

type generateRequest struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int64    `json:"max_tokens"`
}

type generateResponse struct {
	Content       string           `json:"content"`
	ModelUsed     string           `json:"model_used"`
	Usage         map[string]int64 `json:"usage"`
	Cost          provider.Cost    `json:"cost"`
	ActionResults []*action.Result `json:"action_results"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, prov, sessionID, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}

	result, err := h.playground.Respond(r.Context(), req.Provider, req.Prompt, h.generateOptions(req, sessionID))

	if err != nil {
		h.logger.Error("Generation failed", "provider", prov.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	setSessionCookie(w, sessionID)
	writeJson(w, generateResponse{
		Content:       result.Content,
		ModelUsed:     result.ModelUsed,
		Usage:         result.Usage,
		Cost:          result.Cost,
		ActionResults: result.ActionResults,
	})
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	req, prov, sessionID, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}

	chunks, errCh := prov.Stream(r.Context(), req.Prompt, h.generateOptions(req, sessionID))

	setSessionCookie(w, sessionID)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, fmt.Sprintf(`{"session_id": %q}`, sessionID))

	var reply strings.Builder

	for chunk := range chunks {
		reply.WriteString(chunk)

		if err := writeEvent(w, chunk); err != nil {
			return
		}
	}

	if err := <-errCh; err != nil {
		h.logger.Error("Stream failed", "provider", prov.Name(), "error", err)
		writeEvent(w, "[Error] "+err.Error())
		return
	}

	// Directive replies yield their action results as trailing events.
	if requests, ok := action.ParseDirective(reply.String()); ok {
		for _, result := range h.playground.Executor().ExecuteSequence(r.Context(), requests) {
			if result.Success {
				writeEvent(w, "[Action Result] "+result.Message)
			}
		}
	}
}

// generateOptions maps the request body onto per-call options, with the
// configured request timeout bounding the exchange.
func (h *Handler) generateOptions(req generateRequest, sessionID string) func(o *provider.GenerateOptions) {
	return func(o *provider.GenerateOptions) {
		o.SessionID = sessionID
		o.MaxTokens = req.MaxTokens
		if req.Temperature != nil {
			o.Temperature = *req.Temperature
		}
		if secs := h.config.Server.RequestTimeoutSeconds; secs > 0 {
			o.Timeout = time.Duration(secs) * time.Second
		}
	}
}

// decodeGenerate parses the shared generate/stream request body, resolves
// the backend and applies a one-call model override.
func (h *Handler) decodeGenerate(w http.ResponseWriter, r *http.Request) (generateRequest, provider.Provider, string, bool) {
	req := generateRequest{Provider: "openai"}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return req, nil, "", false
	}

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, errors.New("prompt is required"))
		return req, nil, "", false
	}

	prov, ok := h.playground.Provider(req.Provider)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid provider"))
		return req, nil, "", false
	}

	if req.Model != "" {
		prov.SetModel(req.Model)
	}

	return req, prov, sessionID(r), true
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	models := map[string]map[string]string{}

	for _, name := range h.playground.ProviderNames() {
		prov, _ := h.playground.Provider(name)
		models[name] = prov.ListModels(r.Context())
	}

	writeJson(w, models)
}

type actionDetails struct {
	Description        string            `json:"description"`
	RequiredParameters map[string]string `json:"required_parameters"`
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	details := map[string]actionDetails{}

	for name, doc := range h.playground.Executor().AvailableActions() {
		details[name] = actionDetails{
			Description:        doc.Description,
			RequiredParameters: doc.RequiredParameters,
		}
	}

	writeJson(w, details)
}

func (h *Handler) handleExecuteActions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actions []action.Request `json:"actions"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results := h.playground.Executor().ExecuteSequence(r.Context(), req.Actions)

	if results == nil {
		results = []*action.Result{}
	}

	setSessionCookie(w, sessionID(r))
	writeJson(w, results)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	providerName := r.URL.Query().Get("provider")

	if providerName == "" {
		providerName = "openai"
	}

	prov, ok := h.playground.Provider(providerName)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid provider"))
		return
	}

	id := sessionID(r)
	history := prov.History(id)

	setSessionCookie(w, id)
	writeJson(w, map[string]any{"history": history})
}

func (h *Handler) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Provider string `json:"provider"`
	}{Provider: "openai"}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	prov, ok := h.playground.Provider(req.Provider)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid provider"))
		return
	}

	id := sessionID(r)
	prov.ClearHistory(id)

	setSessionCookie(w, id)
	writeJson(w, map[string]any{"message": "History cleared successfully"})
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	keys := map[string]any{
		"openai":    maskKey(h.config.OpenAI.APIKey),
		"anthropic": maskKey(h.config.Anthropic.APIKey),
		"grok":      maskKey(h.config.Grok.APIKey),
	}

	writeJson(w, map[string]any{"api_keys": keys})
}

// maskKey hides an API key, keeping only the last four characters.
func maskKey(key string) any {
	if key == "" {
		return nil
	}

	suffix := key
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}

	return strings.Repeat("•", 8) + suffix
}

// sessionID returns the session id from the request cookie, minting a new
// one when the client has none yet.
func sessionID(r *http.Request) string {
	if cookie, err := r.Cookie("session_id"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return uuid.NewString()
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(map[string]string{"error": err.Error()})
}

func writeEvent(w http.ResponseWriter, data string) error {
	rc := http.NewResponseController(w)

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}

	return rc.Flush()
}
