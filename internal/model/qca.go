package model

// AssociationType controls the sign of a question's contribution to a course total
type AssociationType string

const (
	AssociationPositive AssociationType = "positive" // score adds to the course total
	AssociationNegative AssociationType = "negative" // score subtracts from the course total
)

// Valid reports whether t is a known association type
func (t AssociationType) Valid() bool {
	return t == AssociationPositive || t == AssociationNegative
}

// QCA links one question to one course (question-course association)
type QCA struct {
	ID              string              `json:"id" bson:"_id,omitempty"`
	QuestionID      string              `json:"question_id" bson:"question_id"`
	CourseID        string              `json:"course_id" bson:"course_id"`
	AssociationType AssociationType     `json:"answer_association_type" bson:"answer_association_type"`
	Feedbacks       []ScoreFeedbackItem `json:"feedbacks_based_on_score,omitempty" bson:"feedbacks_based_on_score,omitempty"`
}

// CreateQCARequest is the request body for creating an association
type CreateQCARequest struct {
	QuestionID      string              `json:"question_id"`
	CourseID        string              `json:"course_id"`
	AssociationType AssociationType     `json:"answer_association_type"`
	Feedbacks       []ScoreFeedbackItem `json:"feedbacks_based_on_score,omitempty"`
}

// UpdateQCARequest updates the mutable parts of an association.
// The question/course link itself is immutable.
type UpdateQCARequest struct {
	AssociationType *AssociationType     `json:"answer_association_type"`
	Feedbacks       *[]ScoreFeedbackItem `json:"feedbacks_based_on_score"`
}
