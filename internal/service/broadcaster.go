package service

import "selfeval/internal/model"

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSurvey(surveyID string, msgType string, payload interface{})
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   model.Role
}

// IsTeacher reports whether the actor has the teacher role
func (a Actor) IsTeacher() bool {
	return a.Role == model.RoleTeacher
}

// AttemptSubmittedEvent is pushed to a survey's teacher feed on submission
type AttemptSubmittedEvent struct {
	AttemptID      string                           `json:"attempt_id"`
	StudentID      string                           `json:"student_id"`
	CourseScores   map[string]float64               `json:"course_scores"`
	CourseOutcomes map[string]model.OutcomeCategory `json:"course_outcome_categorization"`
	OverallScore   float64                          `json:"actual_overall_survey_score"`
}

const msgAttemptSubmitted = "attempt_submitted"
