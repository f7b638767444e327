package model

import "time"

// AnswerType defines how a question is answered and scored
type AnswerType string

const (
	AnswerTypeMultipleChoice AnswerType = "multiple_choice" // one option key
	AnswerTypeMultipleSelect AnswerType = "multiple_select" // list of option keys
	AnswerTypeInput          AnswerType = "input"           // free text
	AnswerTypeRange          AnswerType = "range"           // number within {min,max}
)

// Valid reports whether t is one of the known answer types
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerTypeMultipleChoice, AnswerTypeMultipleSelect, AnswerTypeInput, AnswerTypeRange:
		return true
	}
	return false
}

// Question is a reusable question authored by a teacher.
// AnswerOptions and ScoringRules are free-form documents whose shape depends
// on AnswerType; they are decoded into typed rules by the scoring package.
type Question struct {
	ID               string                 `json:"id" bson:"_id,omitempty"`
	Title            string                 `json:"title" bson:"title"`
	Details          string                 `json:"details,omitempty" bson:"details,omitempty"`
	AnswerType       AnswerType             `json:"answer_type" bson:"answer_type"`
	AnswerOptions    map[string]interface{} `json:"answer_options,omitempty" bson:"answer_options,omitempty"`
	ScoringRules     map[string]interface{} `json:"scoring_rules" bson:"scoring_rules"`
	DefaultFeedbacks []ScoreFeedbackItem    `json:"default_feedbacks_on_score,omitempty" bson:"default_feedbacks_on_score,omitempty"`
	CreatedBy        string                 `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt        time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" bson:"updated_at"`
}

// QuestionRequest is the request body for creating or replacing a question
type QuestionRequest struct {
	Title            string                 `json:"title"`
	Details          string                 `json:"details,omitempty"`
	AnswerType       AnswerType             `json:"answer_type"`
	AnswerOptions    map[string]interface{} `json:"answer_options,omitempty"`
	ScoringRules     map[string]interface{} `json:"scoring_rules"`
	DefaultFeedbacks []ScoreFeedbackItem    `json:"default_feedbacks_on_score,omitempty"`
}

// SurveyQuestionDetail is a question as presented to a student taking a survey
type SurveyQuestionDetail struct {
	QuestionID    string                 `json:"question_id"`
	QCAID         string                 `json:"qca_id"`
	CourseID      string                 `json:"course_id"`
	Title         string                 `json:"title"`
	Details       string                 `json:"details,omitempty"`
	AnswerType    AnswerType             `json:"answer_type"`
	AnswerOptions map[string]interface{} `json:"answer_options,omitempty"`
}
