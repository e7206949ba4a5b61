// Package config loads settings for the server and every tool. A YAML file
// supplies the base configuration; environment variables (optionally from a
// .env file) override it, which keeps secrets out of checked-in configs.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultCouncilModels is used when no roster is configured.
const DefaultCouncilModels = "openai/gpt-4.1,openai/gpt-4o-mini,google/gemini-2.5-flash"

// Config holds everything the server and tools need.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Council  CouncilConfig  `yaml:"council"`
	Docs     DocsConfig     `yaml:"docs"`
	N8N      N8NConfig      `yaml:"n8n"`
	Pinecone PineconeConfig `yaml:"pinecone"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	WebFetch WebFetchConfig `yaml:"webfetch"`
}

// ServerConfig describes the HTTP host.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	DataDir            string   `yaml:"dataDir"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	MaxRequestBodySize int64    `yaml:"maxRequestBodySize"`
}

// CouncilConfig describes the council orchestrator.
type CouncilConfig struct {
	BaseURL         string `yaml:"baseUrl"`
	APIKey          string `yaml:"apiKey"`
	FallbackBaseURL string `yaml:"fallbackBaseUrl"`
	FallbackAPIKey  string `yaml:"fallbackApiKey"`
	// Models is a comma-separated list of model IDs, or "all" to use the
	// live catalog capped at MaxModels.
	Models         string `yaml:"models"`
	Chairperson    string `yaml:"chairperson"`
	MaxModels      int    `yaml:"maxModels"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-call timeout as a duration.
func (c CouncilConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DocsConfig describes the Google Apps Script document connector.
type DocsConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// N8NConfig describes the n8n workflow webhook.
type N8NConfig struct {
	URL            string  `yaml:"url"`
	BearerToken    string  `yaml:"bearerToken"`
	InputField     string  `yaml:"inputField"`
	ResponseField  string  `yaml:"responseField"`
	EmitInterval   float64 `yaml:"emitIntervalSeconds"`
	DisableStatus  bool    `yaml:"disableStatus"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
}

// PineconeConfig describes the Pinecone RAG tool.
type PineconeConfig struct {
	APIKey        string `yaml:"apiKey"`
	IndexName     string `yaml:"indexName"`
	OpenAIAPIKey  string `yaml:"openaiApiKey"`
	TopK          int    `yaml:"topK"`
	ControllerURL string `yaml:"controllerUrl"`
	EmbeddingURL  string `yaml:"embeddingUrl"`
}

// SpotifyConfig describes the Spotify search tool.
type SpotifyConfig struct {
	AccessToken string `yaml:"accessToken"`
	BaseURL     string `yaml:"baseUrl"`
	Market      string `yaml:"market"`
	Limit       int    `yaml:"limit"`
}

// WebFetchConfig describes the URL content fetcher.
type WebFetchConfig struct {
	TimeoutSeconds  int `yaml:"timeoutSeconds"`
	MaxContentChars int `yaml:"maxContentChars"`
	CacheTTLMinutes int `yaml:"cacheTtlMinutes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:               8001,
			DataDir:            "data/conversations",
			MaxRequestBodySize: 1 << 20,
		},
		Council: CouncilConfig{
			BaseURL:         "http://localhost:3000/api",
			FallbackBaseURL: "https://api.openai.com/v1",
			Models:          DefaultCouncilModels,
			MaxModels:       5,
			TimeoutSeconds:  60,
		},
		N8N: N8NConfig{
			URL:            "http://n8n-ui:5678/webhook/invoke-n8n-agent",
			InputField:     "chatInput",
			ResponseField:  "output",
			EmitInterval:   2.0,
			TimeoutSeconds: 60,
		},
		Pinecone: PineconeConfig{
			TopK:          5,
			ControllerURL: "https://api.pinecone.io",
			EmbeddingURL:  "https://api.openai.com/v1/embeddings",
		},
		Spotify: SpotifyConfig{
			BaseURL: "https://api.spotify.com/v1",
			Market:  "US",
			Limit:   10,
		},
		WebFetch: WebFetchConfig{
			TimeoutSeconds:  30,
			MaxContentChars: 8000,
			CacheTTLMinutes: 5,
		},
	}
}

// LoadDotenv loads a .env file from the working directory or its parent.
// Missing files are fine; env vars may be set by the environment itself.
func LoadDotenv() {
	for _, envPath := range []string{".env", "../.env"} {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				log.Printf("Loaded .env from: %s", absPath)
				return
			}
		}
	}
	log.Printf("Warning: .env file not found in any expected location")
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and fills defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			log.Printf("Config file %s not found, using defaults", path)
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Council.BaseURL, "OPENWEBUI_BASE_URL")
	setString(&c.Council.APIKey, "OPENWEBUI_API_KEY")
	setString(&c.Council.FallbackBaseURL, "FALLBACK_BASE_URL")
	if key := firstEnv("OPENAI_API_KEY", "OPENROUTER_API_KEY"); key != "" {
		c.Council.FallbackAPIKey = key
	}
	setString(&c.Council.Models, "COUNCIL_MODELS")
	setString(&c.Council.Chairperson, "CHAIRPERSON_MODEL")
	setInt(&c.Council.MaxModels, "COUNCIL_MAX_MODELS")
	setInt(&c.Council.TimeoutSeconds, "COUNCIL_TIMEOUT")

	setString(&c.Docs.WebhookURL, "DOCS_WEBHOOK_URL")

	setString(&c.N8N.URL, "N8N_URL")
	setString(&c.N8N.BearerToken, "N8N_BEARER_TOKEN")

	setString(&c.Pinecone.APIKey, "PINECONE_API_KEY")
	setString(&c.Pinecone.IndexName, "PINECONE_INDEX_NAME")
	setString(&c.Pinecone.OpenAIAPIKey, "OPENAI_API_KEY")

	setString(&c.Spotify.AccessToken, "SPOTIFY_ACCESS_TOKEN")

	setInt(&c.Server.Port, "PORT")
	setString(&c.Server.DataDir, "DATA_DIR")
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.CORSAllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.CORSAllowedOrigins = append(c.Server.CORSAllowedOrigins, origin)
			}
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
