package council

import (
	"reflect"
	"testing"
)

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name: "numbered list after marker",
			input: `Response A is good but lacks detail.
Response B provides comprehensive coverage.

FINAL RANKING:
1. Response B
2. Response A`,
			expected: []string{"Response B", "Response A"},
		},
		{
			name: "marker without numbered list",
			input: `FINAL RANKING:
Response C
Response A
Response B`,
			expected: []string{"Response C", "Response A", "Response B"},
		},
		{
			name: "extra whitespace after number",
			input: `FINAL RANKING:
1.  Response A
2.  Response B`,
			expected: []string{"Response A", "Response B"},
		},
		{
			name: "trailing commentary after ranking",
			input: `FINAL RANKING:
1. Response B
2. Response A

These are my rankings based on quality.`,
			expected: []string{"Response B", "Response A"},
		},
		{
			name:     "no marker falls back to whole text",
			input:    `I think Response A is best, then Response C, then Response B.`,
			expected: []string{"Response A", "Response C", "Response B"},
		},
		{
			name:     "duplicates are kept",
			input:    `Response A beats everything. Really, Response A.`,
			expected: []string{"Response A", "Response A"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name: "marker with nothing rankable",
			input: `FINAL RANKING:
No responses to rank.`,
			expected: nil,
		},
		{
			name: "marker present ignores labels before it even when section is empty",
			input: `Response A looked strong early on.

FINAL RANKING:
(withheld)`,
			expected: nil,
		},
		{
			name: "labels only mentioned before the marker are ignored",
			input: `Response A is mentioned here first.
Response B is also mentioned.

FINAL RANKING:
1. Response C
2. Response A`,
			expected: []string{"Response C", "Response A"},
		},
		{
			name: "labels beyond C",
			input: `FINAL RANKING:
1. Response D
2. Response A
3. Response B
4. Response C`,
			expected: []string{"Response D", "Response A", "Response B", "Response C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseRanking(tt.input)
			if len(result) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseRanking() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAggregateRankings(t *testing.T) {
	labelToModel := map[string]string{
		"Response A": "model-a",
		"Response B": "model-b",
		"Response C": "model-c",
	}

	t.Run("averages positions across rankers", func(t *testing.T) {
		rankings := []Ranking{
			{Model: "model-a", ParsedRanking: []string{"Response B", "Response A", "Response C"}},
			{Model: "model-b", ParsedRanking: []string{"Response B", "Response C", "Response A"}},
		}

		aggregate := AggregateRankings(rankings, labelToModel)

		if len(aggregate) != 3 {
			t.Fatalf("Expected 3 aggregate entries, got %d", len(aggregate))
		}
		if aggregate[0].Model != "model-b" {
			t.Errorf("Best model = %s, want model-b", aggregate[0].Model)
		}
		if aggregate[0].AverageRank != 1.0 {
			t.Errorf("Best average = %v, want 1.0", aggregate[0].AverageRank)
		}
		if aggregate[0].RankingsCount != 2 {
			t.Errorf("RankingsCount = %d, want 2", aggregate[0].RankingsCount)
		}
	})

	t.Run("unknown labels are ignored", func(t *testing.T) {
		rankings := []Ranking{
			{Model: "model-a", ParsedRanking: []string{"Response Z", "Response A"}},
		}

		aggregate := AggregateRankings(rankings, labelToModel)

		if len(aggregate) != 1 {
			t.Fatalf("Expected 1 aggregate entry, got %d", len(aggregate))
		}
		if aggregate[0].Model != "model-a" || aggregate[0].AverageRank != 2.0 {
			t.Errorf("Got %+v, want model-a with average 2.0", aggregate[0])
		}
	})

	t.Run("empty rankings produce empty aggregate", func(t *testing.T) {
		aggregate := AggregateRankings([]Ranking{{Model: "model-a"}}, labelToModel)
		if len(aggregate) != 0 {
			t.Errorf("Expected empty aggregate, got %v", aggregate)
		}
	})

	t.Run("ties are ordered by model name", func(t *testing.T) {
		rankings := []Ranking{
			{Model: "x", ParsedRanking: []string{"Response A", "Response B"}},
			{Model: "y", ParsedRanking: []string{"Response B", "Response A"}},
		}

		aggregate := AggregateRankings(rankings, labelToModel)

		if len(aggregate) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(aggregate))
		}
		if aggregate[0].Model != "model-a" || aggregate[1].Model != "model-b" {
			t.Errorf("Tie order = [%s, %s], want [model-a, model-b]", aggregate[0].Model, aggregate[1].Model)
		}
	})
}
