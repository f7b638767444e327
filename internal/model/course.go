package model

// Course is a course a survey can assess readiness for
type Course struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name"`
	Code        string `json:"code" bson:"code"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// CourseRequest is the request body for creating or updating a course.
// Pointer fields left nil are not changed on update.
type CourseRequest struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
}
