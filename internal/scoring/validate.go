package scoring

import (
	"errors"
	"fmt"
	"selfeval/internal/model"
	"strconv"
)

var (
	// ErrInvalidQuestion is returned when a question's options and rules are inconsistent
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidRule is returned for a malformed threshold rule at authoring time
	ErrInvalidRule = errors.New("invalid threshold rule")
)

// ValidationError rejects a submitted answer for a named question
type ValidationError struct {
	QuestionTitle string
	Reason        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Q '%s': %s", e.QuestionTitle, e.Reason)
}

func invalidAnswer(q Question, format string, args ...interface{}) error {
	return &ValidationError{QuestionTitle: q.Title, Reason: fmt.Sprintf(format, args...)}
}

// ValidateAnswer checks the shape of a submitted answer before it is stored
func ValidateAnswer(q Question, value interface{}) error {
	switch q.Type {
	case model.AnswerTypeMultipleChoice:
		key, ok := value.(string)
		if !ok || len(q.Options.Keys) == 0 || !q.Options.HasKey(key) {
			return invalidAnswer(q, "Invalid option '%v'.", value)
		}
	case model.AnswerTypeMultipleSelect:
		list, ok := asList(value)
		if !ok {
			return invalidAnswer(q, "Answer must be a list.")
		}
		if len(q.Options.Keys) == 0 {
			return nil
		}
		for _, item := range list {
			key, ok := item.(string)
			if !ok || !q.Options.HasKey(key) {
				return invalidAnswer(q, "Invalid option '%v'.", item)
			}
		}
	case model.AnswerTypeInput:
		if _, ok := value.(string); !ok {
			return invalidAnswer(q, "Answer must be a string.")
		}
	case model.AnswerTypeRange:
		if !isNumber(value) {
			return invalidAnswer(q, "Answer must be a number.")
		}
		v, _ := toFloat(value)
		if q.Options.Min != nil && v < *q.Options.Min {
			return invalidAnswer(q, "Value below min %s.", formatNumber(*q.Options.Min))
		}
		if q.Options.Max != nil && v > *q.Options.Max {
			return invalidAnswer(q, "Value above max %s.", formatNumber(*q.Options.Max))
		}
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func invalidQuestion(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuestion, fmt.Sprintf(format, args...))
}

// ValidateQuestion checks that a question's answer options and scoring rules
// agree with its answer type, and that its default feedback rules are well formed.
func ValidateQuestion(q *model.Question) error {
	if n := len([]rune(q.Title)); n < 3 || n > 255 {
		return invalidQuestion("title must be between 3 and 255 characters")
	}
	if len([]rune(q.Details)) > 2000 {
		return invalidQuestion("details must be at most 2000 characters")
	}
	if q.ScoringRules == nil {
		return invalidQuestion("scoring_rules is required")
	}

	opts := q.AnswerOptions
	rules := q.ScoringRules

	switch q.AnswerType {
	case model.AnswerTypeMultipleChoice, model.AnswerTypeMultipleSelect:
		if len(opts) == 0 {
			return invalidQuestion("answer_options must be a non-empty dictionary for %s", q.AnswerType)
		}
		for k, v := range opts {
			if _, ok := v.(string); !ok {
				return invalidQuestion("answer_options for %s must map option keys to option text (key '%s')", q.AnswerType, k)
			}
		}
		optionScores, hasOptionScores := rules["option_scores"].(map[string]interface{})

		if q.AnswerType == model.AnswerTypeMultipleChoice {
			correctKey, hasCorrectKey := rules["correct_option_key"].(string)
			if !hasOptionScores && !hasCorrectKey {
				return invalidQuestion("scoring_rules for multiple_choice must define 'option_scores' or 'correct_option_key'")
			}
			if hasCorrectKey {
				if _, ok := opts[correctKey]; !ok {
					return invalidQuestion("correct_option_key '%s' not found in answer_options", correctKey)
				}
			}
			for k := range optionScores {
				if _, ok := opts[k]; !ok {
					return invalidQuestion("key '%s' in option_scores not found in answer_options", k)
				}
			}
		} else {
			correctKeys, hasCorrectKeys := asList(rules["correct_option_keys"])
			if !hasOptionScores && !hasCorrectKeys {
				return invalidQuestion("scoring_rules for multiple_select needs 'option_scores' or 'correct_option_keys'")
			}
			for _, item := range correctKeys {
				key, ok := item.(string)
				if !ok {
					return invalidQuestion("correct_option_keys must be strings")
				}
				if _, ok := opts[key]; !ok {
					return invalidQuestion("key '%s' in correct_option_keys not found in answer_options", key)
				}
			}
		}
		for k, v := range optionScores {
			if !isNumber(v) {
				return invalidQuestion("option_scores['%s'] must be a number", k)
			}
		}

	case model.AnswerTypeRange:
		if len(opts) == 0 {
			return invalidQuestion("answer_options must be a dictionary for range type")
		}
		minRaw, hasMin := opts["min"]
		maxRaw, hasMax := opts["max"]
		if !hasMin || !hasMax {
			return invalidQuestion("answer_options for range must include 'min' and 'max' keys")
		}
		if !isNumber(minRaw) || !isNumber(maxRaw) {
			return invalidQuestion("'min' and 'max' in answer_options for range must be numbers")
		}
		lo, _ := toFloat(minRaw)
		hi, _ := toFloat(maxRaw)
		if lo >= hi {
			return invalidQuestion("'min' must be less than 'max' for range options")
		}

	case model.AnswerTypeInput:
		if _, ok := asList(rules["expected_answers"]); !ok {
			return invalidQuestion("scoring_rules for input type must contain 'expected_answers' list")
		}

	default:
		return invalidQuestion("unknown answer_type '%s'", q.AnswerType)
	}

	if err := validateNumericRules(rules); err != nil {
		return err
	}
	if err := ValidateFeedbackItems(q.DefaultFeedbacks); err != nil {
		return invalidQuestion("default_feedbacks_on_score: %v", err)
	}
	return nil
}

var numericRuleKeys = []string{
	"score_if_unanswered",
	"score_if_correct",
	"score_if_incorrect",
	"score_per_correct",
	"penalty_per_incorrect",
	"default_incorrect_score",
	"target_value",
	"score_at_target",
	"score_per_deviation_unit",
}

func validateNumericRules(rules map[string]interface{}) error {
	for _, key := range numericRuleKeys {
		if v, ok := rules[key]; ok && !isNumber(v) {
			return invalidQuestion("scoring_rules.%s must be a number", key)
		}
	}
	return nil
}

// ValidateFeedbackItems checks feedback threshold items at authoring time.
// Scoring tolerates malformed items; authoring does not.
func ValidateFeedbackItems(items []model.ScoreFeedbackItem) error {
	for i, item := range items {
		if err := validateThreshold(i, item.ScoreValue, item.Comparison); err != nil {
			return err
		}
		if item.Feedback == "" {
			return fmt.Errorf("%w: rule %d: feedback is required", ErrInvalidRule, i)
		}
	}
	return nil
}

// ValidateOutcomeItems checks outcome threshold items at authoring time
func ValidateOutcomeItems(items []model.OutcomeThresholdItem) error {
	for i, item := range items {
		if err := validateThreshold(i, item.ScoreValue, item.Comparison); err != nil {
			return err
		}
		if !item.Outcome.Valid() {
			return fmt.Errorf("%w: rule %d: unknown outcome '%s'", ErrInvalidRule, i, item.Outcome)
		}
	}
	return nil
}

func validateThreshold(i int, value *float64, c model.Comparison) error {
	if value == nil {
		return fmt.Errorf("%w: rule %d: score_value is required", ErrInvalidRule, i)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: rule %d: unknown comparison '%s'", ErrInvalidRule, i, c)
	}
	return nil
}
