package council

import (
	"regexp"
	"sort"
	"strings"
)

const rankingMarker = "FINAL RANKING:"

var (
	numberedLabelPattern = regexp.MustCompile(`\d+\.\s*Response [A-Z]`)
	labelPattern         = regexp.MustCompile(`Response [A-Z]`)
)

// ParseRanking extracts an ordered label sequence from a model's free-text
// critique. Three tiers: a numbered list after the FINAL RANKING marker,
// then any labels after the marker; only when the marker is absent is the
// whole text scanned for labels. Duplicates are kept; an empty result means
// the text was unparseable, which is not an error.
func ParseRanking(text string) []string {
	if strings.Contains(text, rankingMarker) {
		parts := strings.SplitN(text, rankingMarker, 2)
		section := parts[1]

		if numbered := numberedLabelPattern.FindAllString(section, -1); len(numbered) > 0 {
			results := make([]string, 0, len(numbered))
			for _, match := range numbered {
				if label := labelPattern.FindString(match); label != "" {
					results = append(results, label)
				}
			}
			return results
		}

		// Marker present: only the section after it counts, even when that
		// leaves nothing.
		return labelPattern.FindAllString(section, -1)
	}

	return labelPattern.FindAllString(text, -1)
}

// AggregateRankings averages each model's peer-assigned positions across all
// parsed stage-2 rankings. Labels that de-anonymize to nothing (hallucinated
// labels) are ignored. The result is sorted best-first, ties broken by model
// name so output is deterministic.
func AggregateRankings(rankings []Ranking, labelToModel map[string]string) []AggregateRanking {
	positions := make(map[string][]int)
	for _, ranking := range rankings {
		for position, label := range ranking.ParsedRanking {
			if model, ok := labelToModel[label]; ok {
				positions[model] = append(positions[model], position+1)
			}
		}
	}

	aggregate := make([]AggregateRanking, 0, len(positions))
	for model, ranks := range positions {
		sum := 0
		for _, rank := range ranks {
			sum += rank
		}
		aggregate = append(aggregate, AggregateRanking{
			Model:         model,
			AverageRank:   float64(sum) / float64(len(ranks)),
			RankingsCount: len(ranks),
		})
	}

	sort.Slice(aggregate, func(i, j int) bool {
		if aggregate[i].AverageRank != aggregate[j].AverageRank {
			return aggregate[i].AverageRank < aggregate[j].AverageRank
		}
		return aggregate[i].Model < aggregate[j].Model
	})

	return aggregate
}
