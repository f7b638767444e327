package service

import (
	"context"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"
	"strings"

	"go.uber.org/zap"
)

// QuestionService handles question authoring
type QuestionService struct {
	questions repository.QuestionRepo
	qcas      repository.QCARepo
	refresher *SurveyRefresher
}

// NewQuestionService creates a new question service
func NewQuestionService(questions repository.QuestionRepo, qcas repository.QCARepo, refresher *SurveyRefresher) *QuestionService {
	return &QuestionService{
		questions: questions,
		qcas:      qcas,
		refresher: refresher,
	}
}

// Create validates and stores a question
func (s *QuestionService) Create(ctx context.Context, actor Actor, req *model.QuestionRequest) (*model.Question, error) {
	question := questionFromRequest(req)
	question.CreatedBy = actor.UserID
	if err := scoring.ValidateQuestion(question); err != nil {
		return nil, err
	}

	if _, err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Get retrieves a question by ID
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, notFound("question")
	}
	return question, nil
}

// List returns a page of questions, newest first
func (s *QuestionService) List(ctx context.Context, skip, limit int64) ([]*model.Question, error) {
	return s.questions.List(ctx, skip, limit)
}

// Update replaces a question's content, keeping its author and creation time
func (s *QuestionService) Update(ctx context.Context, id string, req *model.QuestionRequest) (*model.Question, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	question := questionFromRequest(req)
	question.ID = existing.ID
	question.CreatedBy = existing.CreatedBy
	question.CreatedAt = existing.CreatedAt
	if err := scoring.ValidateQuestion(question); err != nil {
		return nil, err
	}

	if err := s.questions.Update(ctx, question); err != nil {
		return nil, err
	}
	s.invalidateSurveys(ctx, id)
	return question, nil
}

// Delete removes a question. Associations pointing at it are left in place
// and dropped at scoring time.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("question")
	}
	s.invalidateSurveys(ctx, id)
	return nil
}

func (s *QuestionService) invalidateSurveys(ctx context.Context, questionID string) {
	qcas, err := s.qcas.List(ctx, repository.QCAFilter{QuestionID: questionID}, 0, 0)
	if err != nil {
		s.refresher.log.Warn("failed to list associations for cache invalidation", zap.Error(err))
		return
	}

	var ids []string
	seen := make(map[string]bool)
	for _, qca := range qcas {
		surveys, err := s.refresher.surveys.ListByCourseID(ctx, qca.CourseID)
		if err != nil {
			continue
		}
		for _, sv := range surveys {
			if !seen[sv.ID] {
				seen[sv.ID] = true
				ids = append(ids, sv.ID)
			}
		}
	}
	s.refresher.invalidate(ctx, ids...)
}

func questionFromRequest(req *model.QuestionRequest) *model.Question {
	return &model.Question{
		Title:            strings.TrimSpace(req.Title),
		Details:          req.Details,
		AnswerType:       req.AnswerType,
		AnswerOptions:    req.AnswerOptions,
		ScoringRules:     req.ScoringRules,
		DefaultFeedbacks: req.DefaultFeedbacks,
	}
}
