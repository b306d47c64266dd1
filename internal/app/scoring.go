package app

import (
	"math"

	"litmus-quiz-service/internal/domain"
)

// Score sums the recorded option values. An empty answer set scores zero.
func Score(answers map[string]int) int {
	total := 0
	for _, value := range answers {
		total += value
	}
	return total
}

// MaxPossibleScore derives the score ceiling from the catalog itself (sum of
// each question's largest option value) so it tracks catalog changes.
func MaxPossibleScore(catalog domain.Catalog) int {
	max := 0
	for _, q := range catalog.Questions {
		max += q.MaxValue()
	}
	return max
}

// PercentScore is the display percentage, rounded to the nearest integer.
func PercentScore(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(maxScore) * 100))
}

// Classify maps a score onto the tier table. Tiers are ordered by descending
// MinScore and the last entry floors at zero, so every score from 0 up maps
// to exactly one tier. Pure data lookup; adding a tier never touches the
// state machine.
func Classify(score int, tiers []domain.Tier) domain.Tier {
	for _, tier := range tiers {
		if score >= tier.MinScore {
			return tier
		}
	}
	// Table misconfiguration (no zero-floor entry); fall back to the last
	// tier rather than returning an empty classification.
	return tiers[len(tiers)-1]
}
