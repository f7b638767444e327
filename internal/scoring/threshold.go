package scoring

import (
	"selfeval/internal/model"
	"sort"
)

// Rule is a threshold rule: when (score <Comparison> Threshold) holds, Payload is selected
type Rule[T any] struct {
	Threshold  float64
	Comparison model.Comparison
	Payload    T
}

// FeedbackRule selects a feedback message
type FeedbackRule = Rule[string]

// OutcomeRule selects an outcome category
type OutcomeRule = Rule[model.OutcomeCategory]

// Matches reports whether the rule holds for score. Unknown comparisons never match.
func (r Rule[T]) Matches(score float64) bool {
	switch r.Comparison {
	case model.CompareLT:
		return score < r.Threshold
	case model.CompareLTE:
		return score <= r.Threshold
	case model.CompareGT:
		return score > r.Threshold
	case model.CompareGTE:
		return score >= r.Threshold
	case model.CompareEQ:
		return score == r.Threshold
	case model.CompareNEQ:
		return score != r.Threshold
	}
	return false
}

// FirstMatch returns the payload of the first rule, in the given order, that holds for score
func FirstMatch[T any](score float64, rules []Rule[T]) (T, bool) {
	for _, r := range rules {
		if r.Matches(score) {
			return r.Payload, true
		}
	}
	var zero T
	return zero, false
}

// EvaluateFeedback picks a feedback message. Rules are evaluated in caller order.
func EvaluateFeedback(score float64, rules []FeedbackRule) (string, bool) {
	return FirstMatch(score, rules)
}

// EvaluateOutcome picks an outcome category, defaulting to UNDEFINED.
// Rules are evaluated sorted by (threshold, comparison name) so the result
// does not depend on the order they were authored in.
func EvaluateOutcome(score float64, rules []OutcomeRule) model.OutcomeCategory {
	if len(rules) == 0 {
		return model.OutcomeUndefined
	}

	sorted := make([]OutcomeRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Threshold != sorted[j].Threshold {
			return sorted[i].Threshold < sorted[j].Threshold
		}
		return sorted[i].Comparison < sorted[j].Comparison
	})

	if outcome, ok := FirstMatch(score, sorted); ok {
		return outcome
	}
	return model.OutcomeUndefined
}

// DecodeFeedbackRules converts stored feedback items into rules.
// Items with a missing threshold, an unknown comparison or an empty message
// are skipped; the number skipped is returned alongside.
func DecodeFeedbackRules(items []model.ScoreFeedbackItem) ([]FeedbackRule, int) {
	rules := make([]FeedbackRule, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.ScoreValue == nil || !item.Comparison.Valid() || item.Feedback == "" {
			skipped++
			continue
		}
		rules = append(rules, FeedbackRule{
			Threshold:  *item.ScoreValue,
			Comparison: item.Comparison,
			Payload:    item.Feedback,
		})
	}
	return rules, skipped
}

// DecodeOutcomeRules converts stored outcome items into rules, skipping malformed ones
func DecodeOutcomeRules(items []model.OutcomeThresholdItem) ([]OutcomeRule, int) {
	rules := make([]OutcomeRule, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.ScoreValue == nil || !item.Comparison.Valid() || !item.Outcome.Valid() {
			skipped++
			continue
		}
		rules = append(rules, OutcomeRule{
			Threshold:  *item.ScoreValue,
			Comparison: item.Comparison,
			Payload:    item.Outcome,
		})
	}
	return rules, skipped
}
