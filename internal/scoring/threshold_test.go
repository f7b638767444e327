package scoring

import (
	"selfeval/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		comparison model.Comparison
		score      float64
		want       bool
	}{
		{model.CompareLT, 4, true},
		{model.CompareLT, 5, false},
		{model.CompareLTE, 5, true},
		{model.CompareLTE, 5.01, false},
		{model.CompareGT, 5.01, true},
		{model.CompareGT, 5, false},
		{model.CompareGTE, 5, true},
		{model.CompareGTE, 4.99, false},
		{model.CompareEQ, 5, true},
		{model.CompareEQ, 5.5, false},
		{model.CompareNEQ, 5.5, true},
		{model.CompareNEQ, 5, false},
		{model.Comparison("between"), 5, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.comparison), func(t *testing.T) {
			r := FeedbackRule{Threshold: 5, Comparison: tt.comparison, Payload: "x"}
			assert.Equal(t, tt.want, r.Matches(tt.score))
		})
	}
}

func TestFirstMatch(t *testing.T) {
	rules := []FeedbackRule{
		{Threshold: 3, Comparison: model.CompareLT, Payload: "low"},
		{Threshold: 7, Comparison: model.CompareLT, Payload: "mid"},
		{Threshold: 7, Comparison: model.CompareGTE, Payload: "high"},
	}

	got, ok := FirstMatch(2, rules)
	assert.True(t, ok)
	assert.Equal(t, "low", got)

	got, ok = FirstMatch(5, rules)
	assert.True(t, ok)
	assert.Equal(t, "mid", got)

	got, ok = FirstMatch(9, rules)
	assert.True(t, ok)
	assert.Equal(t, "high", got)

	got, ok = FirstMatch[string](5, nil)
	assert.False(t, ok)
	assert.Empty(t, got)
}

// The same rule set is order sensitive for feedback and order insensitive for outcomes.
func TestRuleOrdering(t *testing.T) {
	items := []struct {
		threshold  float64
		comparison model.Comparison
		outcome    model.OutcomeCategory
		feedback   string
	}{
		{10, model.CompareLT, model.OutcomeNotSuitable, "below ten"},
		{5, model.CompareGTE, model.OutcomeRecommended, "five or more"},
		{8, model.CompareGT, model.OutcomeEligibleERPL, "above eight"},
	}

	forward := make([]FeedbackRule, 0, len(items))
	forwardOutcomes := make([]OutcomeRule, 0, len(items))
	for _, it := range items {
		forward = append(forward, FeedbackRule{Threshold: it.threshold, Comparison: it.comparison, Payload: it.feedback})
		forwardOutcomes = append(forwardOutcomes, OutcomeRule{Threshold: it.threshold, Comparison: it.comparison, Payload: it.outcome})
	}
	reversed := make([]FeedbackRule, len(forward))
	reversedOutcomes := make([]OutcomeRule, len(forwardOutcomes))
	for i := range forward {
		reversed[len(forward)-1-i] = forward[i]
		reversedOutcomes[len(forwardOutcomes)-1-i] = forwardOutcomes[i]
	}

	const score = 9.0

	first, ok := EvaluateFeedback(score, forward)
	require.True(t, ok)
	second, ok := EvaluateFeedback(score, reversed)
	require.True(t, ok)
	assert.Equal(t, "below ten", first)
	assert.Equal(t, "above eight", second)

	// sorted: (5, gte), (8, gt), (10, lt)
	assert.Equal(t, model.OutcomeRecommended, EvaluateOutcome(score, forwardOutcomes))
	assert.Equal(t, model.OutcomeRecommended, EvaluateOutcome(score, reversedOutcomes))

	// the caller's slice is left untouched
	assert.Equal(t, model.OutcomeNotSuitable, forwardOutcomes[0].Payload)
}

func TestEvaluateOutcomeTieBreaksOnComparisonName(t *testing.T) {
	rules := []OutcomeRule{
		{Threshold: 5, Comparison: model.CompareLTE, Payload: model.OutcomeNotSuitable},
		{Threshold: 5, Comparison: model.CompareGTE, Payload: model.OutcomeRecommended},
	}
	// "gte" sorts before "lte", so an exact 5 is recommended
	assert.Equal(t, model.OutcomeRecommended, EvaluateOutcome(5, rules))
	assert.Equal(t, model.OutcomeNotSuitable, EvaluateOutcome(4, rules))
}

func TestEvaluateOutcomeDefaultsToUndefined(t *testing.T) {
	assert.Equal(t, model.OutcomeUndefined, EvaluateOutcome(3, nil))
	assert.Equal(t, model.OutcomeUndefined, EvaluateOutcome(3, []OutcomeRule{
		{Threshold: 5, Comparison: model.CompareGT, Payload: model.OutcomeRecommended},
	}))
}

func TestDecodeFeedbackRules(t *testing.T) {
	five := 5.0
	items := []model.ScoreFeedbackItem{
		{ScoreValue: &five, Comparison: model.CompareGTE, Feedback: "good"},
		{ScoreValue: nil, Comparison: model.CompareGTE, Feedback: "no threshold"},
		{ScoreValue: &five, Comparison: "approx", Feedback: "bad comparison"},
		{ScoreValue: &five, Comparison: model.CompareLT, Feedback: ""},
		{ScoreValue: &five, Comparison: model.CompareLT, Feedback: "needs work"},
	}

	rules, skipped := DecodeFeedbackRules(items)
	assert.Equal(t, 3, skipped)
	require.Len(t, rules, 2)
	assert.Equal(t, "good", rules[0].Payload)
	assert.Equal(t, "needs work", rules[1].Payload)
}

func TestDecodeOutcomeRules(t *testing.T) {
	zero := 0.0
	items := []model.OutcomeThresholdItem{
		{ScoreValue: &zero, Comparison: model.CompareGT, Outcome: model.OutcomeEligibleERPL},
		{ScoreValue: &zero, Comparison: model.CompareGT, Outcome: "MAYBE"},
		{ScoreValue: nil, Comparison: model.CompareGT, Outcome: model.OutcomeRecommended},
	}

	rules, skipped := DecodeOutcomeRules(items)
	assert.Equal(t, 2, skipped)
	require.Len(t, rules, 1)
	assert.Equal(t, model.OutcomeEligibleERPL, EvaluateOutcome(1, rules))
}
