package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/themsquared/agent-playground/evaluation"
)

type evaluateRequest struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	Questions []string                    `json:"questions"`
	Models    []evaluation.ModelSelection `json:"models"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no questions provided"))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("test name is required"))
		return
	}
	if len(req.Models) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no models selected"))
		return
	}

	test, err := h.runner.Run(r.Context(), req.ID, req.Name, req.Questions, req.Models)
	if err != nil {
		h.logger.Error("Evaluation failed", "test", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJson(w, test)
}

// evaluationStore guards the optional persistence layer; a playground run
// without a database path serves evaluation runs but cannot save them.
func (h *Handler) evaluationStore(w http.ResponseWriter) (*evaluation.Store, bool) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("evaluation store not configured"))
		return nil, false
	}
	return h.store, true
}

func (h *Handler) handleEvaluationSave(w http.ResponseWriter, r *http.Request) {
	store, ok := h.evaluationStore(w)
	if !ok {
		return
	}

	var test evaluation.Test

	if err := json.NewDecoder(r.Body).Decode(&test); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := store.Save(r.Context(), &test)
	if err != nil {
		h.logger.Error("Saving evaluation failed", "test", test.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJson(w, map[string]string{
		"message": "Evaluation saved successfully",
		"test_id": id,
	})
}

func (h *Handler) handleEvaluationResults(w http.ResponseWriter, r *http.Request) {
	store, ok := h.evaluationStore(w)
	if !ok {
		return
	}

	tests, err := store.List(r.Context())
	if err != nil {
		h.logger.Error("Listing evaluations failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJson(w, tests)
}

func (h *Handler) handleEvaluationCSV(w http.ResponseWriter, r *http.Request) {
	store, ok := h.evaluationStore(w)
	if !ok {
		return
	}

	testID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=evaluation_%s.csv", testID))

	if err := store.WriteCSV(r.Context(), w, testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, errors.New("test not found"))
			return
		}
		h.logger.Error("CSV export failed", "test", testID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}
