package scoring

import (
	"encoding/json"
	"selfeval/internal/model"
	"strconv"
	"strings"
)

// ScoringRules is the decoded form of a question's scoring rules.
// It is one of MultipleChoiceRules, MultipleSelectRules, InputRules or RangeRules.
type ScoringRules interface {
	answerType() model.AnswerType
}

// MultipleChoiceRules scores a single selected option
type MultipleChoiceRules struct {
	OptionScores     map[string]float64
	CorrectOptionKey *string
	ScoreIfCorrect   *float64
	ScoreIfIncorrect *float64
}

// MultipleSelectRules scores a set of selected options
type MultipleSelectRules struct {
	OptionScores        map[string]float64
	CorrectOptionKeys   []string
	ScorePerCorrect     *float64
	PenaltyPerIncorrect *float64
}

// ExpectedAnswer is one accepted free-text answer
type ExpectedAnswer struct {
	Text          string
	Score         float64
	CaseSensitive bool
}

// InputRules scores free text against a list of expected answers
type InputRules struct {
	ExpectedAnswers       []ExpectedAnswer
	DefaultIncorrectScore *float64
}

// RangeRules scores a number by its distance from a target
type RangeRules struct {
	TargetValue           *float64
	ScoreAtTarget         *float64
	ScorePerDeviationUnit *float64
}

func (MultipleChoiceRules) answerType() model.AnswerType { return model.AnswerTypeMultipleChoice }
func (MultipleSelectRules) answerType() model.AnswerType { return model.AnswerTypeMultipleSelect }
func (InputRules) answerType() model.AnswerType          { return model.AnswerTypeInput }
func (RangeRules) answerType() model.AnswerType          { return model.AnswerTypeRange }

// DecodeScoringRules decodes a raw rules document for the given answer type.
// Fields with the wrong shape are treated as absent. Unknown answer types decode to nil.
func DecodeScoringRules(t model.AnswerType, raw map[string]interface{}) ScoringRules {
	switch t {
	case model.AnswerTypeMultipleChoice:
		r := MultipleChoiceRules{
			OptionScores:     floatMap(raw["option_scores"]),
			ScoreIfCorrect:   optFloat(raw, "score_if_correct"),
			ScoreIfIncorrect: optFloat(raw, "score_if_incorrect"),
		}
		if key, ok := raw["correct_option_key"].(string); ok {
			r.CorrectOptionKey = &key
		}
		return r
	case model.AnswerTypeMultipleSelect:
		return MultipleSelectRules{
			OptionScores:        floatMap(raw["option_scores"]),
			CorrectOptionKeys:   stringList(raw["correct_option_keys"]),
			ScorePerCorrect:     optFloat(raw, "score_per_correct"),
			PenaltyPerIncorrect: optFloat(raw, "penalty_per_incorrect"),
		}
	case model.AnswerTypeInput:
		r := InputRules{DefaultIncorrectScore: optFloat(raw, "default_incorrect_score")}
		list, _ := asList(raw["expected_answers"])
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			ea := ExpectedAnswer{}
			ea.Text, _ = entry["text"].(string)
			ea.CaseSensitive, _ = entry["case_sensitive"].(bool)
			if s, ok := toFloat(entry["score"]); ok {
				ea.Score = s
			}
			r.ExpectedAnswers = append(r.ExpectedAnswers, ea)
		}
		return r
	case model.AnswerTypeRange:
		return RangeRules{
			TargetValue:           optFloat(raw, "target_value"),
			ScoreAtTarget:         optFloat(raw, "score_at_target"),
			ScorePerDeviationUnit: optFloat(raw, "score_per_deviation_unit"),
		}
	}
	return nil
}

// toFloat converts numbers and numeric strings. Booleans are not numbers.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// isNumber reports whether v is a JSON/BSON number (strings excluded)
func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

func optFloat(raw map[string]interface{}, key string) *float64 {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func floatMap(v interface{}) map[string]float64 {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, raw := range m {
		if f, ok := toFloat(raw); ok {
			out[k] = f
		}
	}
	return out
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func stringList(v interface{}) []string {
	list, _ := asList(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
