// Package spotify searches the Spotify Web API for tracks and playlists
// matching a query and renders the results as a chat-friendly list. The
// client authenticates with a bearer token supplied by a TokenSource; how
// that token is obtained is outside this package.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
	"github.com/matheusbuniotto/openwebui-tools/internal/events"
)

// TokenSource supplies the bearer token for API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed token.
type StaticToken string

// Token returns the fixed token, or an error when it is unset.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("Spotify access token is missing; check the tool configuration")
	}
	return string(t), nil
}

// Track is one track search hit.
type Track struct {
	Name         string `json:"name"`
	Artists      []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// Playlist is one playlist search hit.
type Playlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
	Playlists struct {
		Items []Playlist `json:"items"`
	} `json:"playlists"`
}

// Tool is the music search adapter.
type Tool struct {
	cfg    config.SpotifyConfig
	tokens TokenSource
	client *http.Client
}

// New builds the tool. A nil tokens falls back to the configured static
// access token.
func New(cfg config.SpotifyConfig, tokens TokenSource) *Tool {
	if tokens == nil {
		tokens = StaticToken(cfg.AccessToken)
	}
	return &Tool{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FindMusic searches for playlists (and tracks as a fallback) matching the
// query and renders the result. Failures become explanation strings.
func (t *Tool) FindMusic(ctx context.Context, query string, emit events.Emitter) string {
	events.Emit(emit, events.Status("info", "Searching for matching playlists...", false))

	playlists, err := t.SearchPlaylists(ctx, query)
	if err != nil {
		events.Emit(emit, events.Status("error", fmt.Sprintf("Error: %v", err), true))
		return fmt.Sprintf("Failed to search Spotify: %v", err)
	}

	if len(playlists) > 0 {
		events.Emit(emit, events.Status("info",
			fmt.Sprintf("Found %d matching playlist(s)!", len(playlists)), true))
		return renderPlaylists(playlists)
	}

	// No playlists: offer individual tracks instead.
	events.Emit(emit, events.Status("info", "No playlists found, searching tracks...", false))
	tracks, err := t.SearchTracks(ctx, query)
	if err != nil {
		events.Emit(emit, events.Status("error", fmt.Sprintf("Error: %v", err), true))
		return fmt.Sprintf("Failed to search Spotify: %v", err)
	}
	if len(tracks) == 0 {
		events.Emit(emit, events.Status("info", "Nothing found.", true))
		return "No playlists or tracks matched that vibe. Try different words."
	}

	events.Emit(emit, events.Status("info",
		fmt.Sprintf("Found %d track suggestion(s).", len(tracks)), true))
	return renderTracks(tracks)
}

// SearchTracks runs a track search.
func (t *Tool) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	parsed, err := t.search(ctx, query, "track")
	if err != nil {
		return nil, err
	}
	return parsed.Tracks.Items, nil
}

// SearchPlaylists runs a playlist search.
func (t *Tool) SearchPlaylists(ctx context.Context, query string) ([]Playlist, error) {
	parsed, err := t.search(ctx, query, "playlist")
	if err != nil {
		return nil, err
	}
	return parsed.Playlists.Items, nil
}

func (t *Tool) search(ctx context.Context, query, kind string) (*searchResponse, error) {
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	limit := t.cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	market := t.cfg.Market
	if market == "" {
		market = "US"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", market)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(t.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: %d - %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &parsed, nil
}

func renderPlaylists(playlists []Playlist) string {
	if len(playlists) > 5 {
		playlists = playlists[:5]
	}

	var out strings.Builder
	fmt.Fprintf(&out, "🎵 **Found %d playlist(s) for your vibe:**\n", len(playlists))
	for i, playlist := range playlists {
		link := playlist.ExternalURLs.Spotify
		if link == "" {
			link = "https://open.spotify.com/playlist/" + playlist.ID
		}
		owner := playlist.Owner.DisplayName
		if owner == "" {
			owner = "Unknown"
		}
		fmt.Fprintf(&out, "\n%d. **%s** by %s (%d tracks)\n   %s\n",
			i+1, playlist.Name, owner, playlist.Tracks.Total, link)
	}
	return out.String()
}

func renderTracks(tracks []Track) string {
	if len(tracks) > 10 {
		tracks = tracks[:10]
	}

	var out strings.Builder
	fmt.Fprintf(&out, "🎵 **No playlists matched, but here are %d track(s):**\n", len(tracks))
	for i, track := range tracks {
		artists := make([]string, 0, len(track.Artists))
		for _, artist := range track.Artists {
			artists = append(artists, artist.Name)
		}
		fmt.Fprintf(&out, "\n%d. **%s** — %s\n   %s\n",
			i+1, track.Name, strings.Join(artists, ", "), track.ExternalURLs.Spotify)
	}
	return out.String()
}
