// Package docs creates Google Docs from a template through a Google Apps
// Script web app: one POST with the filename and the placeholder
// replacements, one JSON reply with the document URL.
package docs

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

// Tool is the document-creation adapter.
type Tool struct {
	cfg    config.DocsConfig
	client *http.Client
}

// New builds the tool from configuration.
func New(cfg config.DocsConfig) *Tool {
	return &Tool{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type webhookRequest struct {
	Filename     string            `json:"filename"`
	Replacements map[string]string `json:"replacements"`
}

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// CreateDocument fills the configured template with the replacements given
// as a JSON object (e.g. {"{client}": "Company X"}) and returns a formatted
// result string. Failures are returned as explanation strings, never raised.
func (t *Tool) CreateDocument(ctx context.Context, filename, replacementsJSON string, emit events.Emitter) string {
	if t.cfg.WebhookURL == "" {
		return "Error: You need to configure the Docs webhook URL in the tool settings."
	}

	var replacements map[string]string
	if err := json.Unmarshal([]byte(replacementsJSON), &replacements); err != nil {
		events.Emit(emit, events.Status("error", fmt.Sprintf("Error: invalid replacements JSON: %v", err), true))
		return fmt.Sprintf("Failed to create document: invalid replacements JSON: %v", err)
	}

	events.Emit(emit, events.Status("info", "Sending data to Google...", false))

	result, err := t.invoke(ctx, filename, replacements)
	if err != nil {
		events.Emit(emit, events.Status("error", fmt.Sprintf("Error: %v", err), true))
		return fmt.Sprintf("Failed to create document: %v", err)
	}

	events.Emit(emit, events.Status("info", "Document created!", true))

	return fmt.Sprintf("Success! The document was created.\n\n**Name:** %s\n**Access here:** [Open Document](%s)", filename, result.URL)
}

func (t *Tool) invoke(ctx context.Context, filename string, replacements map[string]string) (*webhookResponse, error) {
	payload, err := json.Marshal(webhookRequest{Filename: filename, Replacements: replacements})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connection error: %s", string(body))
	}

	var result webhookResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Status == "error" {
		return nil, fmt.Errorf("%s", result.Message)
	}

	return &result, nil
}
