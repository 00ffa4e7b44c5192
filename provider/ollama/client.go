package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chatMessage is a chat message in the native Ollama wire format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for /api/chat.
type chatRequest struct {
	Model    string       `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *chatOptions `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int64   `json:"num_predict,omitempty"`
}

// chatResponse is one /api/chat body: the whole reply when stream is false,
// a single NDJSON line when streaming. Durations are nanoseconds.
type chatResponse struct {
	Model              string      `json:"model"`
	Message            chatMessage `json:"message"`
	Done               bool        `json:"done"`
	TotalDuration      int64       `json:"total_duration,omitempty"`
	LoadDuration       int64       `json:"load_duration,omitempty"`
	PromptEvalDuration int64       `json:"prompt_eval_duration,omitempty"`
	EvalDuration       int64       `json:"eval_duration,omitempty"`
}

// modelInfo describes one installed model as reported by /api/tags.
type modelInfo struct {
	Name    string `json:"name"`
	Details struct {
		Format        string `json:"format"`
		Family        string `json:"family"`
		ParameterSize string `json:"parameter_size"`
	} `json:"details"`
}

type listModelsResponse struct {
	Models []modelInfo `json:"models"`
}

// client is a minimal HTTP client for the native Ollama API. The local
// server has no SDK dependency worth carrying for the three endpoints used
// here.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(host string) *client {
	return &client{
		baseURL: host,
		// Local generation can be slow on first model load.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// ping verifies the server is reachable.
func (c *client) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama server not running at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from ollama server: %s", resp.Status)
	}
	return nil
}

// listModels fetches the installed models from /api/tags.
func (c *client) listModels(ctx context.Context) ([]modelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama server not running at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list models: %s", resp.Status)
	}
	var result listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return result.Models, nil
}

// chat sends a non-streaming chat request.
func (c *client) chat(ctx context.Context, reqBody chatRequest) (*chatResponse, error) {
	reqBody.Stream = false
	resp, err := c.post(ctx, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &result, nil
}

// chatStream sends a streaming chat request and invokes fn per NDJSON line
// until the final chunk or an error.
func (c *client) chatStream(ctx context.Context, reqBody chatRequest, fn func(chunk chatResponse) error) error {
	reqBody.Stream = true
	resp, err := c.post(ctx, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if err := fn(chunk); err != nil {
			return err
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *client) post(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama server not running at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama chat failed: %s: %s", resp.Status, bytes.TrimSpace(payload))
	}
	return resp, nil
}
