package model

import "time"

// Survey bundles the questions of one or more courses.
// Threshold maps and maxima are keyed by course ID.
type Survey struct {
	ID                 string                            `json:"id" bson:"_id,omitempty"`
	Title              string                            `json:"title" bson:"title"`
	Description        string                            `json:"description,omitempty" bson:"description,omitempty"`
	CourseIDs          []string                          `json:"course_ids" bson:"course_ids"`
	IsPublished        bool                              `json:"is_published" bson:"is_published"`
	CreatedBy          string                            `json:"created_by" bson:"created_by"`
	FeedbackThresholds map[string][]ScoreFeedbackItem    `json:"course_skill_total_score_thresholds" bson:"course_skill_total_score_thresholds"`
	OutcomeThresholds  map[string][]OutcomeThresholdItem `json:"course_outcome_thresholds" bson:"course_outcome_thresholds"`
	MaxScoresPerCourse map[string]float64                `json:"max_scores_per_course" bson:"max_scores_per_course"`
	MaxOverallScore    float64                           `json:"max_overall_survey_score" bson:"max_overall_survey_score"`
	CreatedAt          time.Time                         `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time                         `json:"updated_at" bson:"updated_at"`

	Questions []SurveyQuestionDetail `json:"questions,omitempty" bson:"-"`
}

// SurveyRequest is the request body for creating or updating a survey.
// On update, nil fields are left unchanged.
type SurveyRequest struct {
	Title              *string                            `json:"title"`
	Description        *string                            `json:"description"`
	CourseIDs          *[]string                          `json:"course_ids"`
	IsPublished        *bool                              `json:"is_published"`
	FeedbackThresholds *map[string][]ScoreFeedbackItem    `json:"course_skill_total_score_thresholds"`
	OutcomeThresholds  *map[string][]OutcomeThresholdItem `json:"course_outcome_thresholds"`
}
