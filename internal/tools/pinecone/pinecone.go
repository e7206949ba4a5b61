// Package pinecone performs retrieval-augmented search: the query text is
// embedded via the OpenAI embeddings API and matched against a Pinecone
// index. The index host is discovered once through the controller API and
// cached; a failed query clears the cache so the next call rediscovers.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/cache"
	"github.com/matheusbuniotto/openwebui-tools/internal/config"
	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

const embeddingModel = "text-embedding-3-small"

// Tool is the RAG adapter.
type Tool struct {
	cfg       config.PineconeConfig
	client    *http.Client
	hostCache *cache.TTL[string]
}

// New builds the tool from configuration.
func New(cfg config.PineconeConfig) *Tool {
	return &Tool{
		cfg:       cfg,
		client:    &http.Client{Timeout: 30 * time.Second},
		hostCache: cache.New[string](time.Hour),
	}
}

// Query embeds the question, searches the index, and renders the matches as
// a context block. All failures come back as explanation strings.
func (t *Tool) Query(ctx context.Context, query string, emit events.Emitter) string {
	events.Emit(emit, events.Status("info", "Connecting to APIs...", false))

	if t.cfg.APIKey == "" || t.cfg.IndexName == "" {
		return "Error: Pinecone settings are missing. Check the tool configuration."
	}
	if t.cfg.OpenAIAPIKey == "" {
		return "Error: OpenAI key is missing. Check the tool configuration."
	}

	host, ok := t.hostCache.Get(t.cfg.IndexName)
	if !ok {
		events.Emit(emit, events.Status("info",
			fmt.Sprintf("Locating database '%s'...", t.cfg.IndexName), false))
		discovered, err := t.fetchIndexHost(ctx)
		if err != nil {
			events.Emit(emit, events.Status("error", fmt.Sprintf("Technical Error: %v", err), true))
			return fmt.Sprintf("An error occurred while searching the knowledge base: %v", err)
		}
		host = discovered
		t.hostCache.Set(t.cfg.IndexName, host)
	}

	events.Emit(emit, events.Status("info", "Generating search vectors...", false))
	vector, err := t.embed(ctx, query)
	if err != nil {
		events.Emit(emit, events.Status("error", fmt.Sprintf("Technical Error: %v", err), true))
		return fmt.Sprintf("An error occurred while searching the knowledge base: %v", err)
	}

	events.Emit(emit, events.Status("info", "Querying Pinecone...", false))
	matches, err := t.search(ctx, host, vector)
	if err != nil {
		// Drop the cached host so the next call rediscovers the index.
		t.hostCache.Delete(t.cfg.IndexName)
		events.Emit(emit, events.Status("error", fmt.Sprintf("Technical Error: %v", err), true))
		return fmt.Sprintf("An error occurred while searching the knowledge base: %v", err)
	}

	if len(matches) == 0 {
		events.Emit(emit, events.Status("info", "No relevant documents found.", true))
		return "No relevant information was found in the database to answer this question."
	}

	contexts := make([]string, 0, len(matches))
	for _, match := range matches {
		contexts = append(contexts, fmt.Sprintf("--- Document (Relevance: %.2f) ---\n%s", match.Score, matchText(match)))
	}

	events.Emit(emit, events.Status("info",
		fmt.Sprintf("Success: %d documents retrieved.", len(matches)), true))
	return "Context retrieved from Pinecone:\n" + strings.Join(contexts, "\n\n")
}

type indexList struct {
	Indexes []struct {
		Name string `json:"name"`
		Host string `json:"host"`
	} `json:"indexes"`
}

// fetchIndexHost resolves the index name to its data-plane host through the
// Pinecone controller API.
func (t *Tool) fetchIndexHost(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(t.cfg.ControllerURL, "/")+"/indexes", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list indexes: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read index list: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to list indexes: %s", string(body))
	}

	var parsed indexList
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse index list: %w", err)
	}
	for _, idx := range parsed.Indexes {
		if idx.Name == t.cfg.IndexName {
			return idx.Host, nil
		}
	}
	return "", fmt.Errorf("index '%s' not found in the provided Pinecone account", t.cfg.IndexName)
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (t *Tool) embed(ctx context.Context, query string) ([]float64, error) {
	payload, err := json.Marshal(map[string]string{
		"input": query,
		"model": embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.EmbeddingURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return parsed.Data[0].Embedding, nil
}

// Match is one scored document returned by the index.
type Match struct {
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

func (t *Tool) search(ctx context.Context, host string, vector []float64) ([]Match, error) {
	topK := t.cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	payload, err := json.Marshal(map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"includeValues":   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	url := host
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(url, "/")+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Pinecone error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read query response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Pinecone error: %s", string(body))
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	return parsed.Matches, nil
}

// matchText extracts the document text from metadata, trying the common
// field names in order.
func matchText(match Match) string {
	for _, field := range []string{"text", "content", "context"} {
		if v, ok := match.Metadata[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", match.Metadata)
}
