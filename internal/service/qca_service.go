package service

import (
	"context"
	"errors"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"

	"go.uber.org/zap"
)

const msgDuplicateQCA = "This question is already associated with this course."

// QCAService handles question-course associations
type QCAService struct {
	qcas      repository.QCARepo
	questions repository.QuestionRepo
	courses   repository.CourseRepo
	refresher *SurveyRefresher
}

// NewQCAService creates a new association service
func NewQCAService(qcas repository.QCARepo, questions repository.QuestionRepo, courses repository.CourseRepo, refresher *SurveyRefresher) *QCAService {
	return &QCAService{
		qcas:      qcas,
		questions: questions,
		courses:   courses,
		refresher: refresher,
	}
}

// Create links a question to a course
func (s *QCAService) Create(ctx context.Context, req *model.CreateQCARequest) (*model.QCA, error) {
	assocType := req.AssociationType
	if assocType == "" {
		assocType = model.AssociationPositive
	}
	if !assocType.Valid() {
		return nil, invalid("unknown association type %q", assocType)
	}
	if err := scoring.ValidateFeedbackItems(req.Feedbacks); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, notFound("question")
	}
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, notFound("course")
	}

	existing, err := s.qcas.GetByQuestionAndCourse(ctx, question.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict(msgDuplicateQCA)
	}

	qca := &model.QCA{
		QuestionID:      question.ID,
		CourseID:        course.ID,
		AssociationType: assocType,
		Feedbacks:       req.Feedbacks,
	}
	if _, err := s.qcas.Create(ctx, qca); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(msgDuplicateQCA)
		}
		return nil, err
	}

	s.refresh(ctx, qca.CourseID)
	return qca, nil
}

// Get retrieves an association by ID
func (s *QCAService) Get(ctx context.Context, id string) (*model.QCA, error) {
	qca, err := s.qcas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qca == nil {
		return nil, notFound("association")
	}
	return qca, nil
}

// List returns associations, optionally filtered by question and/or course
func (s *QCAService) List(ctx context.Context, filter repository.QCAFilter, skip, limit int64) ([]*model.QCA, error) {
	return s.qcas.List(ctx, filter, skip, limit)
}

// Update changes the association type and/or feedback rules
func (s *QCAService) Update(ctx context.Context, id string, req *model.UpdateQCARequest) (*model.QCA, error) {
	qca, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AssociationType != nil {
		if !req.AssociationType.Valid() {
			return nil, invalid("unknown association type %q", *req.AssociationType)
		}
		qca.AssociationType = *req.AssociationType
	}
	if req.Feedbacks != nil {
		if err := scoring.ValidateFeedbackItems(*req.Feedbacks); err != nil {
			return nil, err
		}
		qca.Feedbacks = *req.Feedbacks
	}

	if err := s.qcas.Update(ctx, qca); err != nil {
		return nil, err
	}
	s.refresh(ctx, qca.CourseID)
	return qca, nil
}

// Delete removes an association
func (s *QCAService) Delete(ctx context.Context, id string) error {
	qca, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.qcas.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("association")
	}
	s.refresh(ctx, qca.CourseID)
	return nil
}

// refresh keeps the write successful even when dependent maxima cannot be updated
func (s *QCAService) refresh(ctx context.Context, courseID string) {
	if err := s.refresher.refreshCourses(ctx, courseID); err != nil {
		s.refresher.log.Error("failed to refresh survey maxima", zap.String("course_id", courseID), zap.Error(err))
	}
}
