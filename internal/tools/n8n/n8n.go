// Package n8n invokes an n8n workflow webhook with a chat prompt and reads
// the workflow's answer from a configured response field.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

// ChatMessage is one turn of the transcript returned to the host.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result mirrors the pipe-style output shape the host expects: the raw
// workflow answer plus the accumulated transcript, with Err set on failure.
type Result struct {
	Response string        `json:"response,omitempty"`
	Err      string        `json:"error,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

// Tool is the workflow adapter.
type Tool struct {
	cfg    config.N8NConfig
	client *http.Client
}

// New builds the tool from configuration.
func New(cfg config.N8NConfig) *Tool {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Tool{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Invoke sends inputText to the workflow and returns the structured result.
// Status events are throttled to the configured interval so long-running
// workflows don't flood the UI; terminal events always go through.
func (t *Tool) Invoke(ctx context.Context, inputText, sessionID string, emit events.Emitter) Result {
	if t.cfg.DisableStatus {
		emit = nil
	}
	throttled := events.NewThrottled(emit, time.Duration(t.cfg.EmitInterval*float64(time.Second)))

	messages := []ChatMessage{{Role: "user", Content: inputText}}

	throttled.Emit(events.Status("info", "Executing N8N Workflow...", false))

	if inputText == "" {
		throttled.Emit(events.Status("error", "No input text provided", true))
		messages = append(messages, ChatMessage{Role: "assistant", Content: "No input text provided"})
		return Result{Err: "No input text provided", Messages: messages}
	}

	answer, err := t.call(ctx, inputText, sessionID)
	if err != nil {
		throttled.Emit(events.Status("error", fmt.Sprintf("Error during N8N workflow execution: %v", err), true))
		messages = append(messages, ChatMessage{Role: "assistant", Content: fmt.Sprintf("Error: %v", err)})
		return Result{Err: err.Error(), Messages: messages}
	}

	messages = append(messages, ChatMessage{Role: "assistant", Content: answer})
	throttled.Emit(events.Status("info", "Workflow completed", true))

	return Result{Response: answer, Messages: messages}
}

func (t *Tool) call(ctx context.Context, inputText, sessionID string) (string, error) {
	payload := map[string]string{t.cfg.InputField: inputText}
	if sessionID != "" {
		payload["sessionId"] = sessionID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach n8n: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error: %d - %s", resp.StatusCode, string(respBody))
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	raw, ok := parsed[t.cfg.ResponseField]
	if !ok {
		return "", fmt.Errorf("response field %q missing in workflow reply", t.cfg.ResponseField)
	}

	var answer string
	if err := json.Unmarshal(raw, &answer); err != nil {
		// Non-string outputs are passed through as raw JSON.
		return string(raw), nil
	}
	return answer, nil
}
