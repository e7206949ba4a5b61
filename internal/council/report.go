package council

import (
	"fmt"
	"strings"
)

const chairpersonFailure = "Error: Chairperson failed to synthesize the final response."

// buildRankingPrompt assembles the stage-2 prompt: the original question and
// every surviving answer under its anonymized label, plus strict formatting
// instructions for the ranking section.
func buildRankingPrompt(topicText string, labels []string, stage1 []StageOneResult) string {
	var responses strings.Builder
	for i, result := range stage1 {
		fmt.Fprintf(&responses, "Response %s:\n%s\n\n", labels[i], result.Response)
	}

	return fmt.Sprintf(`You are evaluating different responses to the following question:

Question: %s

Here are the responses from different models (anonymized):

%s
Your task:
1. Evaluate each response individually (strengths/weaknesses).
2. Provide a final ranking.

IMPORTANT: Your final ranking MUST be formatted EXACTLY as follows:
- Start with the line "FINAL RANKING:" (all caps, with colon)
- Then list the responses from best to worst as a numbered list
- Each line should be: number, period, space, then ONLY the response label (e.g., "1. Response A")

FINAL RANKING:
1. Response [Label]
2. Response [Label]
...
`, topicText, responses.String())
}

// buildSynthesisPrompt assembles the stage-3 prompt from the full stage-1
// transcript and the parsed stage-2 rankings. No aggregation is applied
// here: the chairperson model sees the rankings as text and draws its own
// conclusions.
func buildSynthesisPrompt(topicText string, stage1 []StageOneResult, stage2 []Ranking) string {
	var answers strings.Builder
	for _, result := range stage1 {
		fmt.Fprintf(&answers, "Model: %s\nResponse: %s\n\n", result.Model, result.Response)
	}

	var rankings strings.Builder
	for _, ranking := range stage2 {
		summary := "No valid ranking found"
		if len(ranking.ParsedRanking) > 0 {
			summary = strings.Join(ranking.ParsedRanking, ", ")
		}
		fmt.Fprintf(&rankings, "Model: %s\nRanking: %s\n\n", ranking.Model, summary)
	}

	return fmt.Sprintf(`You are the Chairperson of an LLM Council.

Original Question: %s

STAGE 1 - Individual Responses:
%s
STAGE 2 - Peer Rankings:
%s
Your task as Chairman is to synthesize a single, comprehensive answer.
Consider the insights from Stage 1 and the consensus (or disagreement) from Stage 2.
`, topicText, answers.String(), rankings.String())
}

// buildReport renders the three stages as one markdown document. A nil
// synthesis degrades to an explicit failure placeholder; the report is
// produced either way.
func buildReport(stage1 []StageOneResult, stage2 []Ranking, chairperson string, synthesis *Synthesis) string {
	var report strings.Builder

	report.WriteString("# 🏛️ LLM Council Report\n\n")

	report.WriteString("## Stage 1: Individual Perspectives\n")
	for _, result := range stage1 {
		fmt.Fprintf(&report, "### %s\n%s\n\n", result.Model, result.Response)
	}

	report.WriteString("\n## Stage 2: Peer Evaluation & Ranking\n")
	for _, ranking := range stage2 {
		fmt.Fprintf(&report, "### %s's Ranking\n%s\n\n", ranking.Model, ranking.FullText)
	}

	if synthesis != nil {
		fmt.Fprintf(&report, "\n## Stage 3: Chairperson Synthesis (%s)\n%s\n", chairperson, synthesis.Response)
	} else {
		fmt.Fprintf(&report, "\n## Stage 3: Chairperson Synthesis\n%s\n", chairpersonFailure)
	}

	return report.String()
}
