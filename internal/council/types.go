// Package council implements the 3-stage LLM council: every roster member
// answers the topic, the members rank each other's anonymized answers, and a
// chairperson synthesizes the final result.
package council

import (
	"fmt"
	"time"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
)

// Settings is the fully resolved configuration of one council run. It is
// computed once per invocation and threaded through the pipeline; nothing in
// the pipeline reads mutable shared state.
type Settings struct {
	BaseURL       string
	APIKey        string
	Models        string
	Chairperson   string
	MaxModels     int
	Timeout       time.Duration
	UsingFallback bool
}

// ResolveSettings folds the configured council options and an optional
// per-caller token into run settings. Key priority: caller token, then the
// primary key, then the fallback provider. With no key at all the run is
// rejected before any network call.
func ResolveSettings(cfg config.CouncilConfig, userToken string) (Settings, error) {
	s := Settings{
		BaseURL:     cfg.BaseURL,
		Models:      cfg.Models,
		Chairperson: cfg.Chairperson,
		MaxModels:   cfg.MaxModels,
		Timeout:     cfg.Timeout(),
	}
	if s.Models == "" {
		s.Models = config.DefaultCouncilModels
	}
	if s.MaxModels <= 0 {
		s.MaxModels = 5
	}

	switch {
	case userToken != "":
		s.APIKey = userToken
	case cfg.APIKey != "":
		s.APIKey = cfg.APIKey
	case cfg.FallbackAPIKey != "":
		s.APIKey = cfg.FallbackAPIKey
		s.BaseURL = cfg.FallbackBaseURL
		s.UsingFallback = true
	default:
		return Settings{}, fmt.Errorf("no API key found; set OPENWEBUI_API_KEY or OPENAI_API_KEY, or configure one")
	}

	return s, nil
}

// StageOneResult is one model's direct answer to the topic.
type StageOneResult struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Ranking is one model's stage-2 critique: the raw text and the label
// sequence extracted from it (empty when parsing failed).
type Ranking struct {
	Model         string   `json:"model"`
	FullText      string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking"`
}

// Synthesis is the chairperson's final answer.
type Synthesis struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// AggregateRanking is the average peer-assigned position of one model.
type AggregateRanking struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// Metadata carries de-anonymization and aggregate information alongside the
// stage results.
type Metadata struct {
	LabelToModel      map[string]string  `json:"label_to_model"`
	AggregateRankings []AggregateRanking `json:"aggregate_rankings"`
}

// Outcome is everything a completed council run produced.
type Outcome struct {
	Stage1   []StageOneResult `json:"stage1"`
	Stage2   []Ranking        `json:"stage2"`
	Stage3   *Synthesis       `json:"stage3"`
	Metadata Metadata         `json:"metadata"`
	Report   string           `json:"report"`
}
