package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8001 {
		t.Errorf("Port = %d, want 8001", cfg.Server.Port)
	}
	if cfg.Council.Models != DefaultCouncilModels {
		t.Errorf("Models = %q, want the default roster", cfg.Council.Models)
	}
	if cfg.Council.MaxModels != 5 {
		t.Errorf("MaxModels = %d, want 5", cfg.Council.MaxModels)
	}
	if cfg.Council.FallbackBaseURL != "https://api.openai.com/v1" {
		t.Errorf("FallbackBaseURL = %q", cfg.Council.FallbackBaseURL)
	}
	if cfg.Spotify.Market != "US" {
		t.Errorf("Market = %q, want US", cfg.Spotify.Market)
	}
}

func TestCouncilTimeout(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"configured", 30, 30 * time.Second},
		{"zero falls back", 0, 60 * time.Second},
		{"negative falls back", -5, 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CouncilConfig{TimeoutSeconds: tt.seconds}
			if got := c.Timeout(); got != tt.want {
				t.Errorf("Timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
council:
  models: "m1,m2"
  chairperson: "m1"
n8n:
  url: "http://example.com/webhook"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000 from YAML", cfg.Server.Port)
	}
	if cfg.Council.Models != "m1,m2" || cfg.Council.Chairperson != "m1" {
		t.Errorf("Council = %+v", cfg.Council)
	}
	if cfg.N8N.URL != "http://example.com/webhook" {
		t.Errorf("N8N URL = %q", cfg.N8N.URL)
	}
	// Fields absent from the YAML keep their defaults.
	if cfg.Council.MaxModels != 5 {
		t.Errorf("MaxModels = %d, want default 5", cfg.Council.MaxModels)
	}
	if cfg.N8N.InputField != "chatInput" {
		t.Errorf("InputField = %q, want default", cfg.N8N.InputField)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should not be an error: %v", err)
	}
	if cfg.Server.Port != 8001 {
		t.Errorf("Port = %d, want defaults", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENWEBUI_BASE_URL", "http://webui:3000/api")
	t.Setenv("OPENWEBUI_API_KEY", "webui-key")
	t.Setenv("COUNCIL_MODELS", "env-m1,env-m2")
	t.Setenv("CHAIRPERSON_MODEL", "env-m1")
	t.Setenv("COUNCIL_MAX_MODELS", "3")
	t.Setenv("COUNCIL_TIMEOUT", "45")
	t.Setenv("PINECONE_API_KEY", "pc-key")
	t.Setenv("PORT", "9999")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Council.BaseURL != "http://webui:3000/api" || cfg.Council.APIKey != "webui-key" {
		t.Errorf("Council endpoint = %+v", cfg.Council)
	}
	if cfg.Council.Models != "env-m1,env-m2" || cfg.Council.Chairperson != "env-m1" {
		t.Errorf("Roster = %q / %q", cfg.Council.Models, cfg.Council.Chairperson)
	}
	if cfg.Council.MaxModels != 3 || cfg.Council.TimeoutSeconds != 45 {
		t.Errorf("Limits = %d / %d", cfg.Council.MaxModels, cfg.Council.TimeoutSeconds)
	}
	if cfg.Pinecone.APIKey != "pc-key" {
		t.Errorf("Pinecone key = %q", cfg.Pinecone.APIKey)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSAllowedOrigins) != 2 ||
		cfg.Server.CORSAllowedOrigins[0] != want[0] ||
		cfg.Server.CORSAllowedOrigins[1] != want[1] {
		t.Errorf("CORS origins = %v, want %v", cfg.Server.CORSAllowedOrigins, want)
	}
}

func TestFallbackKeyPriority(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("OPENROUTER_API_KEY", "router-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Council.FallbackAPIKey != "openai-key" {
		t.Errorf("FallbackAPIKey = %q, OPENAI_API_KEY should win", cfg.Council.FallbackAPIKey)
	}
}

func TestInvalidIntEnvIgnored(t *testing.T) {
	t.Setenv("COUNCIL_MAX_MODELS", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Council.MaxModels != 5 {
		t.Errorf("MaxModels = %d, want the default kept", cfg.Council.MaxModels)
	}
}
