package model

import "time"

// SurveyAttempt is one student's run through one survey.
// Score, feedback and outcome fields are written once, at submission.
type SurveyAttempt struct {
	ID                    string                     `json:"id" bson:"_id,omitempty"`
	StudentID             string                     `json:"student_id" bson:"student_id"`
	SurveyID              string                     `json:"survey_id" bson:"survey_id"`
	IsSubmitted           bool                       `json:"is_submitted" bson:"is_submitted"`
	StartedAt             time.Time                  `json:"started_at" bson:"started_at"`
	SubmittedAt           *time.Time                 `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	CourseScores          map[string]float64         `json:"course_scores" bson:"course_scores"`
	CourseFeedback        map[string]string          `json:"course_feedback" bson:"course_feedback"`
	DetailedFeedback      map[string][]string        `json:"detailed_feedback" bson:"detailed_feedback"`
	OverallSurveyFeedback string                     `json:"overall_survey_feedback,omitempty" bson:"overall_survey_feedback,omitempty"`
	CourseOutcomes        map[string]OutcomeCategory `json:"course_outcome_categorization" bson:"course_outcome_categorization"`
	ActualOverallScore    *float64                   `json:"actual_overall_survey_score,omitempty" bson:"actual_overall_survey_score,omitempty"`
}

// AttemptSubmission is the frozen result written onto an attempt at submission
type AttemptSubmission struct {
	SubmittedAt           time.Time
	CourseScores          map[string]float64
	CourseFeedback        map[string]string
	DetailedFeedback      map[string][]string
	OverallSurveyFeedback string
	CourseOutcomes        map[string]OutcomeCategory
	ActualOverallScore    float64
}

// AttemptView is an attempt enriched with survey maxima and display data
type AttemptView struct {
	SurveyAttempt
	MaxScoresPerCourse map[string]float64 `json:"max_scores_per_course"`
	MaxOverallScore    *float64           `json:"max_overall_survey_score"`
	SurveyTitle        string             `json:"survey_title,omitempty"`
	SurveyDescription  string             `json:"survey_description,omitempty"`
	StudentDisplayName string             `json:"student_display_name,omitempty"`
	ScoreboardRank     *int64             `json:"scoreboard_rank,omitempty"`
	Answers            []*StudentAnswer   `json:"answers,omitempty"`
}

// StartAttemptRequest is the request body for starting an attempt
type StartAttemptRequest struct {
	SurveyID string `json:"survey_id"`
}

// StartAttemptResponse is returned when an attempt is started or resumed
type StartAttemptResponse struct {
	AttemptID string                 `json:"attempt_id"`
	SurveyID  string                 `json:"survey_id"`
	StudentID string                 `json:"student_id"`
	StartedAt time.Time              `json:"started_at"`
	Questions []SurveyQuestionDetail `json:"questions"`
}
