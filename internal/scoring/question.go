// Package scoring turns stored answers into per-answer scores, per-course
// totals, feedback text and outcome categories. It has no I/O; callers load
// documents, hand them in through the descriptors below and persist the results.
package scoring

import (
	"selfeval/internal/model"
)

// MaxScore is the maximum score a single question can yield
const MaxScore = 10.0

// Options holds what the scorer and validator need from a question's answer options
type Options struct {
	Keys map[string]struct{} // declared option keys
	Min  *float64            // range lower bound
	Max  *float64            // range upper bound
}

// HasKey reports whether key is a declared option
func (o Options) HasKey(key string) bool {
	_, ok := o.Keys[key]
	return ok
}

// Question is a question decoded for scoring
type Question struct {
	ID                string
	Title             string
	Type              model.AnswerType
	Options           Options
	Rules             ScoringRules
	ScoreIfUnanswered *float64
	DefaultFeedback   []FeedbackRule
	SkippedRules      int
}

// LoadQuestion decodes a stored question once so scoring never re-reads raw documents
func LoadQuestion(q *model.Question) Question {
	out := Question{
		ID:    q.ID,
		Title: q.Title,
		Type:  q.AnswerType,
		Rules: DecodeScoringRules(q.AnswerType, q.ScoringRules),
	}
	if q.ScoringRules != nil {
		out.ScoreIfUnanswered = optFloat(q.ScoringRules, "score_if_unanswered")
	}

	if len(q.AnswerOptions) > 0 {
		out.Options.Keys = make(map[string]struct{}, len(q.AnswerOptions))
		for k := range q.AnswerOptions {
			out.Options.Keys[k] = struct{}{}
		}
		if q.AnswerType == model.AnswerTypeRange {
			out.Options.Min = optFloat(q.AnswerOptions, "min")
			out.Options.Max = optFloat(q.AnswerOptions, "max")
		}
	}

	out.DefaultFeedback, out.SkippedRules = DecodeFeedbackRules(q.DefaultFeedbacks)
	return out
}

// Association is a question-course association decoded for scoring
type Association struct {
	ID           string
	QuestionID   string
	CourseID     string
	Type         model.AssociationType
	Feedback     []FeedbackRule
	SkippedRules int
}

// LoadAssociation decodes a stored association
func LoadAssociation(qca *model.QCA) Association {
	a := Association{
		ID:         qca.ID,
		QuestionID: qca.QuestionID,
		CourseID:   qca.CourseID,
		Type:       qca.AssociationType,
	}
	a.Feedback, a.SkippedRules = DecodeFeedbackRules(qca.Feedbacks)
	return a
}

// Contribution is the signed amount a score adds to the association's course total
func (a Association) Contribution(score float64) float64 {
	if a.Type == model.AssociationNegative {
		return -score
	}
	return score
}

// SurveyRules holds a survey's per-course feedback and outcome rules
type SurveyRules struct {
	CourseIDs    []string
	Feedback     map[string][]FeedbackRule
	Outcomes     map[string][]OutcomeRule
	SkippedRules int
}

// LoadSurveyRules decodes a survey's threshold maps
func LoadSurveyRules(s *model.Survey) SurveyRules {
	rules := SurveyRules{
		CourseIDs: s.CourseIDs,
		Feedback:  make(map[string][]FeedbackRule, len(s.FeedbackThresholds)),
		Outcomes:  make(map[string][]OutcomeRule, len(s.OutcomeThresholds)),
	}
	for courseID, items := range s.FeedbackThresholds {
		decoded, skipped := DecodeFeedbackRules(items)
		rules.Feedback[courseID] = decoded
		rules.SkippedRules += skipped
	}
	for courseID, items := range s.OutcomeThresholds {
		decoded, skipped := DecodeOutcomeRules(items)
		rules.Outcomes[courseID] = decoded
		rules.SkippedRules += skipped
	}
	return rules
}
