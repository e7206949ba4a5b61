package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheusbuniotto/openwebui-tools/internal/config"
	"github.com/matheusbuniotto/openwebui-tools/internal/content"
	"github.com/matheusbuniotto/openwebui-tools/internal/events"
	"github.com/matheusbuniotto/openwebui-tools/internal/llmapi"
)

// Council runs the 3-stage pipeline against one resolved configuration.
type Council struct {
	settings Settings
	client   *llmapi.Client
	emit     events.Emitter
}

// New builds a council from resolved settings.
func New(settings Settings, emit events.Emitter) *Council {
	return &Council{
		settings: settings,
		client:   llmapi.NewClient(settings.BaseURL, settings.APIKey, settings.Timeout),
		emit:     emit,
	}
}

// Run executes resolve → stage 1 → stage 2 → stage 3 → report. The returned
// error is terminal (empty roster or a fully failed stage 1) and carries a
// human-readable message; every per-model failure below that threshold is
// absorbed into the outcome instead.
func (c *Council) Run(ctx context.Context, topic content.Topic) (*Outcome, error) {
	userContent := topic.APIContent()
	topicText := topic.PlainText()

	resolved, err := c.resolveRoster(ctx)
	if err != nil {
		events.Emit(c.emit, events.Status("error", err.Error(), true))
		return nil, err
	}

	// Stage 1: every member answers the topic independently.
	events.Emit(c.emit, events.Status("info",
		fmt.Sprintf("Stage 1: Consulting %d council members: %s",
			len(resolved.members), strings.Join(resolved.members, ", ")),
		false))

	stage1Messages := []llmapi.Message{{Role: "user", Content: userContent}}
	stage1Raw := c.client.ChatCompletionAll(ctx, resolved.members, stage1Messages)

	var stage1 []StageOneResult
	var failures []string
	for _, result := range stage1Raw {
		switch {
		case result.Err != nil:
			failures = append(failures, fmt.Sprintf("%s: %v", result.Model, result.Err))
		case result.Content != "":
			stage1 = append(stage1, StageOneResult{Model: result.Model, Response: result.Content})
		}
	}

	if len(stage1) == 0 {
		details := "Unknown error"
		if len(failures) > 0 {
			details = strings.Join(failures, "; ")
		}
		events.Emit(c.emit, events.Status("error", truncate("Failed: "+details, 108), true))
		return nil, fmt.Errorf("all council models failed; check the base URL and API key. Errors: %s", details)
	}

	// Stage 2: anonymize the surviving answers and let the council rank
	// them. Labels follow the issuance order of the stage-1 batch, so the
	// outcome is independent of completion timing.
	events.Emit(c.emit, events.Status("info", "Stage 2: Council is reviewing peer responses...", false))

	labels := make([]string, len(stage1))
	labelToModel := make(map[string]string, len(stage1))
	for i, result := range stage1 {
		labels[i] = string(rune('A' + i))
		labelToModel["Response "+labels[i]] = result.Model
	}

	rankingMessages := []llmapi.Message{{Role: "user", Content: buildRankingPrompt(topicText, labels, stage1)}}
	stage2Raw := c.client.ChatCompletionAll(ctx, resolved.members, rankingMessages)

	var stage2 []Ranking
	for _, result := range stage2Raw {
		if result.Err != nil {
			continue
		}
		stage2 = append(stage2, Ranking{
			Model:         result.Model,
			FullText:      result.Content,
			ParsedRanking: ParseRanking(result.Content),
		})
	}

	// Stage 3: one synthesis call to the chairperson. Failure degrades to a
	// placeholder in the report rather than aborting.
	events.Emit(c.emit, events.Status("info", "Stage 3: Chairperson is synthesizing the result...", false))

	synthesisMessages := []llmapi.Message{{Role: "user", Content: buildSynthesisPrompt(topicText, stage1, stage2)}}
	var synthesis *Synthesis
	if answer, err := c.client.ChatCompletion(ctx, resolved.chairperson, synthesisMessages); err == nil {
		synthesis = &Synthesis{Model: resolved.chairperson, Response: answer}
	}

	events.Emit(c.emit, events.Status("info", "Council meeting adjourned.", true))

	report := buildReport(stage1, stage2, resolved.chairperson, synthesis)
	events.Emit(c.emit, events.Message(report))

	return &Outcome{
		Stage1: stage1,
		Stage2: stage2,
		Stage3: synthesis,
		Metadata: Metadata{
			LabelToModel:      labelToModel,
			AggregateRankings: AggregateRankings(stage2, labelToModel),
		},
		Report: report,
	}, nil
}

// Consult is the host-facing entry point: it resolves settings, runs the
// council, and always returns a string: the report on success, a
// human-readable explanation otherwise. It never returns an error value.
func Consult(ctx context.Context, cfg config.CouncilConfig, userToken string, topic content.Topic, emit events.Emitter) string {
	settings, err := ResolveSettings(cfg, userToken)
	if err != nil {
		events.Emit(emit, events.Status("error", err.Error(), true))
		return "Error: " + err.Error()
	}
	if settings.UsingFallback {
		events.Emit(emit, events.Status("info", "Using fallback API: "+settings.BaseURL, false))
	}

	outcome, err := New(settings, emit).Run(ctx, topic)
	if err != nil {
		return "Error: " + err.Error()
	}
	return outcome.Report
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
