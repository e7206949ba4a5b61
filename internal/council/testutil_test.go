package council

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

// chatCall records one upstream chat request.
type chatCall struct {
	Model   string
	Prompt  string
	Content any
}

// callLog collects upstream requests across goroutines.
type callLog struct {
	mu    sync.Mutex
	chats []chatCall
}

func (l *callLog) add(call chatCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chats = append(l.chats, call)
}

// Chats returns a snapshot of the recorded chat calls.
func (l *callLog) Chats() []chatCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]chatCall, len(l.chats))
	copy(out, l.chats)
	return out
}

// Count returns how many chat calls a given model received.
func (l *callLog) Count(model string) int {
	n := 0
	for _, call := range l.Chats() {
		if call.Model == model {
			n++
		}
	}
	return n
}

// mockUpstream serves the two endpoints the council uses. catalog backs
// GET /models (nil means the catalog endpoint fails); respond decides each
// chat completion, returning the reply text and an HTTP status.
func mockUpstream(t *testing.T, catalog []string, respond func(model, prompt string) (string, int)) (*httptest.Server, *callLog) {
	t.Helper()
	log := &callLog{}

	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			http.Error(w, "catalog unavailable", http.StatusInternalServerError)
			return
		}
		type model struct {
			ID string `json:"id"`
		}
		models := make([]model, len(catalog))
		for i, id := range catalog {
			models[i] = model{ID: id}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": models})
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Errorf("Missing Authorization header")
		}

		var request struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		prompt := ""
		var rawContent any
		if len(request.Messages) > 0 {
			rawContent = request.Messages[0].Content
			if s, ok := rawContent.(string); ok {
				prompt = s
			}
		}
		log.add(chatCall{Model: request.Model, Prompt: prompt, Content: rawContent})

		reply, status := respond(request.Model, prompt)
		if status != http.StatusOK {
			http.Error(w, reply, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, log
}

// testSettings returns run settings pointed at a mock upstream.
func testSettings(baseURL, models string) Settings {
	return Settings{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Models:    models,
		MaxModels: 5,
		Timeout:   10 * time.Second,
	}
}

// collectEvents returns an emitter that appends into the returned slice.
func collectEvents() (events.Emitter, *[]events.Event) {
	collected := &[]events.Event{}
	return func(ev events.Event) { *collected = append(*collected, ev) }, collected
}

// okReply answers every model with a fixed stage-aware response: a direct
// answer for stage 1, a well-formed ranking for stage 2, and a synthesis
// for stage 3.
func okReply(model, prompt string) (string, int) {
	switch {
	case strings.HasPrefix(prompt, "You are evaluating"):
		return "Both are fine.\n\nFINAL RANKING:\n1. Response A\n2. Response B", http.StatusOK
	case strings.HasPrefix(prompt, "You are the Chairperson"):
		return "Synthesized answer from " + model, http.StatusOK
	default:
		return "Answer from " + model, http.StatusOK
	}
}
