package service

import (
	"context"
	"selfeval/internal/cache"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const maxTitleLength = 255

// SurveyService handles survey authoring, visibility and question listing
type SurveyService struct {
	surveys    repository.SurveyRepo
	courses    repository.CourseRepo
	qcas       repository.QCARepo
	questions  repository.QuestionRepo
	attempts   repository.AttemptRepo
	answers    repository.AnswerRepo
	cache      cache.SurveyCache
	scoreboard cache.ScoreboardCache
	refresher  *SurveyRefresher
	log        *zap.Logger
}

// SurveyDeps groups the collaborators of SurveyService
type SurveyDeps struct {
	Surveys    repository.SurveyRepo
	Courses    repository.CourseRepo
	QCAs       repository.QCARepo
	Questions  repository.QuestionRepo
	Attempts   repository.AttemptRepo
	Answers    repository.AnswerRepo
	Cache      cache.SurveyCache
	Scoreboard cache.ScoreboardCache
	Refresher  *SurveyRefresher
	Log        *zap.Logger
}

// NewSurveyService creates a new survey service
func NewSurveyService(d SurveyDeps) *SurveyService {
	return &SurveyService{
		surveys:    d.Surveys,
		courses:    d.Courses,
		qcas:       d.QCAs,
		questions:  d.Questions,
		attempts:   d.Attempts,
		answers:    d.Answers,
		cache:      d.Cache,
		scoreboard: d.Scoreboard,
		refresher:  d.Refresher,
		log:        d.Log,
	}
}

// Create validates and stores a survey and computes its maxima
func (s *SurveyService) Create(ctx context.Context, actor Actor, req *model.SurveyRequest) (*model.Survey, error) {
	if req.Title == nil || req.CourseIDs == nil {
		return nil, invalid("title and course_ids are required")
	}

	survey := &model.Survey{CreatedBy: actor.UserID}
	applySurvey(survey, req)
	if err := s.validate(ctx, survey); err != nil {
		return nil, err
	}

	perCourse, overall, err := s.refresher.maxima(ctx, survey.CourseIDs)
	if err != nil {
		return nil, err
	}
	survey.MaxScoresPerCourse = perCourse
	survey.MaxOverallScore = overall

	if _, err := s.surveys.Create(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// List returns surveys visible to the actor, newest first.
// Students only ever see published surveys; teachers may filter.
func (s *SurveyService) List(ctx context.Context, actor Actor, publishedOnly *bool, skip, limit int64) ([]*model.Survey, error) {
	filter := repository.SurveyFilter{Published: publishedOnly}
	if !actor.IsTeacher() {
		published := true
		filter.Published = &published
	}
	return s.surveys.List(ctx, filter, skip, limit)
}

// Get returns a survey, optionally with the questions a student would answer
func (s *SurveyService) Get(ctx context.Context, actor Actor, id string, includeQuestions bool) (*model.Survey, error) {
	survey, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsTeacher() && !survey.IsPublished {
		return nil, ErrForbidden
	}

	if includeQuestions {
		survey.Questions, err = s.QuestionDetails(ctx, survey)
		if err != nil {
			return nil, err
		}
	}
	return survey, nil
}

// Update applies the non-nil fields of req to a survey owned by the actor
func (s *SurveyService) Update(ctx context.Context, actor Actor, id string, req *model.SurveyRequest) (*model.Survey, error) {
	survey, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if *req == (model.SurveyRequest{}) {
		return nil, invalid("no update data provided")
	}

	applySurvey(survey, req)
	if err := s.validate(ctx, survey); err != nil {
		return nil, err
	}

	survey.MaxScoresPerCourse, survey.MaxOverallScore, err = s.refresher.maxima(ctx, survey.CourseIDs)
	if err != nil {
		return nil, err
	}
	if err := s.surveys.Update(ctx, survey); err != nil {
		return nil, err
	}
	s.refresher.invalidate(ctx, survey.ID)
	return survey, nil
}

// Delete removes a survey without submitted attempts, along with its
// in-progress attempts and their answers
func (s *SurveyService) Delete(ctx context.Context, actor Actor, id string) error {
	survey, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	submitted, err := s.attempts.HasSubmitted(ctx, survey.ID)
	if err != nil {
		return err
	}
	if submitted {
		return invalid("cannot delete survey with submitted attempts")
	}

	deleted, err := s.surveys.Delete(ctx, survey.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("survey")
	}

	attemptIDs, err := s.attempts.ListIDsBySurvey(ctx, survey.ID)
	if err != nil {
		return err
	}
	if _, err := s.answers.DeleteByAttempts(ctx, attemptIDs); err != nil {
		return err
	}
	if _, err := s.attempts.DeleteBySurvey(ctx, survey.ID); err != nil {
		return err
	}

	s.refresher.invalidate(ctx, survey.ID)
	if s.scoreboard != nil {
		if err := s.scoreboard.Clear(ctx, survey.ID); err != nil {
			s.log.Warn("failed to clear scoreboard", zap.String("survey_id", survey.ID), zap.Error(err))
		}
	}
	s.log.Info("survey deleted",
		zap.String("survey_id", survey.ID),
		zap.Int("attempts_removed", len(attemptIDs)))
	return nil
}

// Scoreboard returns the top submitted attempts of a survey owned by the actor
func (s *SurveyService) Scoreboard(ctx context.Context, actor Actor, id string, limit int) ([]cache.ScoreboardEntry, error) {
	survey, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.scoreboard == nil {
		return []cache.ScoreboardEntry{}, nil
	}
	return s.scoreboard.Top(ctx, survey.ID, limit)
}

// QuestionDetails lists each question of the survey's courses once, in
// association order, attached to the first association encountered
func (s *SurveyService) QuestionDetails(ctx context.Context, survey *model.Survey) ([]model.SurveyQuestionDetail, error) {
	if len(survey.CourseIDs) == 0 {
		return []model.SurveyQuestionDetail{}, nil
	}
	if s.cache != nil {
		cached, err := s.cache.GetQuestions(ctx, survey.ID)
		if err != nil {
			s.log.Warn("survey cache read failed", zap.String("survey_id", survey.ID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	qcas, err := s.qcas.ListByCourseIDs(ctx, survey.CourseIDs)
	if err != nil {
		return nil, err
	}

	var questionIDs []string
	firstQCA := make(map[string]*model.QCA)
	for _, qca := range qcas {
		if _, ok := firstQCA[qca.QuestionID]; ok {
			continue
		}
		firstQCA[qca.QuestionID] = qca
		questionIDs = append(questionIDs, qca.QuestionID)
	}

	questions, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	details := make([]model.SurveyQuestionDetail, 0, len(questionIDs))
	for _, qid := range questionIDs {
		q, ok := byID[qid]
		if !ok {
			continue
		}
		qca := firstQCA[qid]
		details = append(details, model.SurveyQuestionDetail{
			QuestionID:    q.ID,
			QCAID:         qca.ID,
			CourseID:      qca.CourseID,
			Title:         q.Title,
			Details:       q.Details,
			AnswerType:    q.AnswerType,
			AnswerOptions: q.AnswerOptions,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetQuestions(ctx, survey.ID, details); err != nil {
			s.log.Warn("survey cache write failed", zap.String("survey_id", survey.ID), zap.Error(err))
		}
	}
	return details, nil
}

func (s *SurveyService) load(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, notFound("survey")
	}
	return survey, nil
}

func (s *SurveyService) owned(ctx context.Context, actor Actor, id string) (*model.Survey, error) {
	survey, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.CreatedBy != actor.UserID {
		return nil, ErrForbidden
	}
	return survey, nil
}

func (s *SurveyService) validate(ctx context.Context, survey *model.Survey) error {
	if survey.Title == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(survey.Title) > maxTitleLength {
		return invalid("title must be at most %d characters", maxTitleLength)
	}

	inSurvey := make(map[string]bool, len(survey.CourseIDs))
	for _, id := range survey.CourseIDs {
		if inSurvey[id] {
			return invalid("duplicate course ID '%s'", id)
		}
		inSurvey[id] = true

		course, err := s.courses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if course == nil {
			return notFound("course '" + id + "'")
		}
	}

	for courseID, items := range survey.FeedbackThresholds {
		if !inSurvey[courseID] {
			return invalid("non-survey course ID '%s' in course_skill_total_score_thresholds", courseID)
		}
		if err := scoring.ValidateFeedbackItems(items); err != nil {
			return err
		}
	}
	for courseID, items := range survey.OutcomeThresholds {
		if !inSurvey[courseID] {
			return invalid("non-survey course ID '%s' in course_outcome_thresholds", courseID)
		}
		if err := scoring.ValidateOutcomeItems(items); err != nil {
			return err
		}
	}
	return nil
}

func applySurvey(survey *model.Survey, req *model.SurveyRequest) {
	if req.Title != nil {
		survey.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		survey.Description = *req.Description
	}
	if req.CourseIDs != nil {
		survey.CourseIDs = append([]string{}, (*req.CourseIDs)...)
	}
	if req.IsPublished != nil {
		survey.IsPublished = *req.IsPublished
	}
	if req.FeedbackThresholds != nil {
		survey.FeedbackThresholds = *req.FeedbackThresholds
	} else if req.CourseIDs != nil {
		survey.FeedbackThresholds = keepCourses(survey.FeedbackThresholds, survey.CourseIDs)
	}
	if req.OutcomeThresholds != nil {
		survey.OutcomeThresholds = *req.OutcomeThresholds
	} else if req.CourseIDs != nil {
		survey.OutcomeThresholds = keepCourses(survey.OutcomeThresholds, survey.CourseIDs)
	}
}

// keepCourses drops threshold lists of courses no longer in the survey
func keepCourses[T any](thresholds map[string][]T, courseIDs []string) map[string][]T {
	if thresholds == nil {
		return nil
	}
	kept := make(map[string][]T, len(thresholds))
	for _, id := range courseIDs {
		if items, ok := thresholds[id]; ok {
			kept[id] = items
		}
	}
	return kept
}
