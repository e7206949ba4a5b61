// Package webfetch downloads a web page and extracts its readable text so a
// model can consume it. Results are cached briefly to spare repeat fetches
// of the same URL within a conversation.
package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/matheusbuniotto/openwebui-tools/internal/cache"
	"github.com/matheusbuniotto/openwebui-tools/internal/config"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Tool fetches and extracts page content.
type Tool struct {
	cfg    config.WebFetchConfig
	client *http.Client
	pages  *cache.TTL[string]
}

// New builds the tool from configuration.
func New(cfg config.WebFetchConfig) *Tool {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Tool{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		pages:  cache.New[string](ttl),
	}
}

// Fetch returns the readable text of the page at url, from cache when fresh.
func (t *Tool) Fetch(ctx context.Context, url string) (string, error) {
	if cached, ok := t.pages.Get(url); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := extractText(doc, t.maxChars())
	t.pages.Set(url, content)
	return content, nil
}

func (t *Tool) maxChars() int {
	if t.cfg.MaxContentChars <= 0 {
		return 8000
	}
	return t.cfg.MaxContentChars
}

// extractText pulls the page's visible text, preferring the main content
// element when one exists, and collapses whitespace.
func extractText(doc *goquery.Document, maxChars int) string {
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("article, main").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	text := strings.Join(strings.Fields(root.Text()), " ")
	if len(text) > maxChars {
		text = text[:maxChars] + "..."
	}
	return text
}
