package scoring

import (
	"math"
	"strconv"
	"strings"
)

// Score computes a question score in [0, MaxScore], rounded to 2 decimals.
// A nil value is an unanswered question. Unknown answer types score 0.
func Score(q Question, value interface{}) float64 {
	if value == nil {
		return normalize(valueOr(q.ScoreIfUnanswered, 0))
	}

	var raw float64
	switch r := q.Rules.(type) {
	case MultipleChoiceRules:
		raw = scoreMultipleChoice(r, value)
	case MultipleSelectRules:
		raw = scoreMultipleSelect(r, q.Options, value)
	case InputRules:
		raw = scoreInput(r, value)
	case RangeRules:
		raw = scoreRange(r, q.Options, value)
	default:
		return 0
	}
	return normalize(raw)
}

func scoreMultipleChoice(r MultipleChoiceRules, value interface{}) float64 {
	key, isString := value.(string)
	if isString {
		if s, ok := r.OptionScores[key]; ok {
			return s
		}
	}
	if r.CorrectOptionKey == nil {
		return 0
	}
	if isString && key == *r.CorrectOptionKey {
		return valueOr(r.ScoreIfCorrect, MaxScore)
	}
	return valueOr(r.ScoreIfIncorrect, 0)
}

func scoreMultipleSelect(r MultipleSelectRules, opts Options, value interface{}) float64 {
	list, ok := asList(value)
	if !ok {
		return 0
	}

	selected := make(map[string]struct{}, len(list))
	for _, item := range list {
		if key, ok := item.(string); ok {
			selected[key] = struct{}{}
		}
	}

	total := 0.0
	if len(r.OptionScores) > 0 {
		for key := range selected {
			total += r.OptionScores[key]
		}
		return total
	}

	correct := make(map[string]struct{}, len(r.CorrectOptionKeys))
	for _, key := range r.CorrectOptionKeys {
		correct[key] = struct{}{}
	}
	if len(correct) == 0 {
		return 0
	}

	perCorrect := valueOr(r.ScorePerCorrect, MaxScore/float64(len(correct)))
	penalty := valueOr(r.PenaltyPerIncorrect, 0)
	for key := range selected {
		if _, ok := correct[key]; ok {
			total += perCorrect
		} else if opts.HasKey(key) {
			total += penalty
		}
	}
	return total
}

func scoreInput(r InputRules, value interface{}) float64 {
	fallback := valueOr(r.DefaultIncorrectScore, 0)
	text, ok := value.(string)
	if !ok {
		return fallback
	}
	for _, expected := range r.ExpectedAnswers {
		var match bool
		if expected.CaseSensitive {
			match = text == expected.Text
		} else {
			match = strings.ToLower(text) == strings.ToLower(expected.Text)
		}
		if match {
			return expected.Score
		}
	}
	return fallback
}

func scoreRange(r RangeRules, opts Options, value interface{}) float64 {
	if _, isBool := value.(bool); isBool {
		return 0
	}
	v, ok := toFloat(value)
	if !ok {
		return 0
	}
	lo := valueOr(opts.Min, 0)
	hi := valueOr(opts.Max, 10)
	target := valueOr(r.TargetValue, (lo+hi)/2)
	base := valueOr(r.ScoreAtTarget, MaxScore)
	slope := valueOr(r.ScorePerDeviationUnit, -1)
	return base + math.Abs(v-target)*slope
}

// normalize clamps to [0, MaxScore] and rounds to 2 decimals. NaN becomes 0.
func normalize(raw float64) float64 {
	if math.IsNaN(raw) || raw < 0 {
		return 0
	}
	if raw > MaxScore {
		raw = MaxScore
	}
	return round2(raw)
}

// round2 rounds the exact binary value to 2 decimals, ties to even
func round2(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		return f
	}
	return r
}
