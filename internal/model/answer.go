package model

import "time"

// StudentAnswer is a student's stored answer to one association in an attempt.
// ScoreAchieved stays nil until the attempt is submitted.
type StudentAnswer struct {
	ID              string      `json:"id" bson:"_id,omitempty"`
	SurveyAttemptID string      `json:"survey_attempt_id" bson:"survey_attempt_id"`
	StudentID       string      `json:"student_id" bson:"student_id"`
	QCAID           string      `json:"qca_id" bson:"qca_id"`
	QuestionID      string      `json:"question_id" bson:"question_id"`
	AnswerValue     interface{} `json:"answer_value" bson:"answer_value"`
	AnsweredAt      time.Time   `json:"answered_at" bson:"answered_at"`
	ScoreAchieved   *float64    `json:"score_achieved" bson:"score_achieved"`
}

// AnswerPayload is one answer in a save-answers request
type AnswerPayload struct {
	QCAID       string      `json:"qca_id"`
	QuestionID  string      `json:"question_id"`
	AnswerValue interface{} `json:"answer_value"`
}

// SubmitAnswersRequest is the request body for saving answers
type SubmitAnswersRequest struct {
	Answers []AnswerPayload `json:"answers"`
}
