package service

import (
	"context"
	"errors"
	"selfeval/internal/cache"
	"selfeval/internal/metrics"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"
	"time"

	"go.uber.org/zap"
)

const unknownStudent = "Unknown Student"

// AttemptService runs students through surveys and scores their submissions
type AttemptService struct {
	attempts    repository.AttemptRepo
	answers     repository.AnswerRepo
	surveys     repository.SurveyRepo
	qcas        repository.QCARepo
	questions   repository.QuestionRepo
	users       repository.UserRepo
	surveySvc   *SurveyService
	lock        cache.SubmitLock
	scoreboard  cache.ScoreboardCache
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

// AttemptDeps groups the collaborators of AttemptService
type AttemptDeps struct {
	Attempts    repository.AttemptRepo
	Answers     repository.AnswerRepo
	Surveys     repository.SurveyRepo
	QCAs        repository.QCARepo
	Questions   repository.QuestionRepo
	Users       repository.UserRepo
	SurveySvc   *SurveyService
	Lock        cache.SubmitLock
	Scoreboard  cache.ScoreboardCache
	Broadcaster Broadcaster
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// NewAttemptService creates a new attempt service
func NewAttemptService(d AttemptDeps) *AttemptService {
	return &AttemptService{
		attempts:    d.Attempts,
		answers:     d.Answers,
		surveys:     d.Surveys,
		qcas:        d.QCAs,
		questions:   d.Questions,
		users:       d.Users,
		surveySvc:   d.SurveySvc,
		lock:        d.Lock,
		scoreboard:  d.Scoreboard,
		broadcaster: d.Broadcaster,
		metrics:     d.Metrics,
		log:         d.Log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster sets the broadcaster (called after hub is created)
func (s *AttemptService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start opens an attempt on a published survey, resuming the student's
// in-progress attempt when there is one
func (s *AttemptService) Start(ctx context.Context, actor Actor, surveyID string) (*model.StartAttemptResponse, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil || !survey.IsPublished {
		return nil, notFound("published survey")
	}

	attempt, err := s.attempts.FindInProgress(ctx, actor.UserID, survey.ID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		attempt = &model.SurveyAttempt{
			StudentID: actor.UserID,
			SurveyID:  survey.ID,
			StartedAt: s.now(),
		}
		if _, err := s.attempts.Create(ctx, attempt); err != nil {
			return nil, err
		}
		s.log.Info("attempt started",
			zap.String("attempt_id", attempt.ID),
			zap.String("survey_id", survey.ID),
			zap.String("student_id", actor.UserID))
	}

	questions, err := s.surveySvc.QuestionDetails(ctx, survey)
	if err != nil {
		return nil, err
	}
	return &model.StartAttemptResponse{
		AttemptID: attempt.ID,
		SurveyID:  survey.ID,
		StudentID: actor.UserID,
		StartedAt: attempt.StartedAt,
		Questions: questions,
	}, nil
}

// SaveAnswers validates and upserts answers on an unsubmitted attempt.
// Each save clears the stored score.
func (s *AttemptService) SaveAnswers(ctx context.Context, actor Actor, attemptID string, req *model.SubmitAnswersRequest) ([]*model.StudentAnswer, error) {
	attempt, release, err := s.lockOpenAttempt(ctx, actor, attemptID)
	if err != nil {
		return nil, err
	}
	defer release()

	saved := make([]*model.StudentAnswer, 0, len(req.Answers))
	for _, payload := range req.Answers {
		question, err := s.resolveAnswer(ctx, payload)
		if err != nil {
			return nil, err
		}
		if err := scoring.ValidateAnswer(scoring.LoadQuestion(question), payload.AnswerValue); err != nil {
			return nil, err
		}

		stored, err := s.answers.Upsert(ctx, &model.StudentAnswer{
			SurveyAttemptID: attempt.ID,
			StudentID:       actor.UserID,
			QCAID:           payload.QCAID,
			QuestionID:      question.ID,
			AnswerValue:     payload.AnswerValue,
			AnsweredAt:      s.now(),
		})
		if err != nil {
			return nil, err
		}
		saved = append(saved, stored)
	}
	return saved, nil
}

func (s *AttemptService) resolveAnswer(ctx context.Context, payload model.AnswerPayload) (*model.Question, error) {
	bad := invalid("invalid QCA/Question ID for payload: %s/%s", payload.QCAID, payload.QuestionID)

	qca, err := s.qcas.GetByID(ctx, payload.QCAID)
	if errors.Is(err, repository.ErrInvalidID) {
		return nil, bad
	}
	if err != nil {
		return nil, err
	}
	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if errors.Is(err, repository.ErrInvalidID) {
		return nil, bad
	}
	if err != nil {
		return nil, err
	}
	if qca == nil || question == nil || qca.QuestionID != question.ID {
		return nil, bad
	}
	return question, nil
}

// Submit scores every stored answer, freezes scores, feedback and outcomes
// onto the attempt and returns the enriched result. A second submission of
// the same attempt fails with ErrAlreadySubmitted and changes nothing.
func (s *AttemptService) Submit(ctx context.Context, actor Actor, attemptID string) (*model.AttemptView, error) {
	started := time.Now()

	attempt, release, err := s.lockOpenAttempt(ctx, actor, attemptID)
	if err != nil {
		return nil, err
	}
	defer release()

	survey, err := s.surveys.GetByID(ctx, attempt.SurveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, notFound("associated survey")
	}

	stored, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	qcas, questions, err := s.loadScoringInputs(ctx, stored)
	if err != nil {
		return nil, err
	}

	inputs := make([]scoring.StoredAnswer, 0, len(stored))
	for _, a := range stored {
		inputs = append(inputs, scoring.StoredAnswer{
			ID:         a.ID,
			QCAID:      a.QCAID,
			QuestionID: a.QuestionID,
			Value:      a.AnswerValue,
		})
	}

	agg := scoring.Aggregate(inputs, qcas, questions, survey.CourseIDs)
	if agg.Dropped > 0 {
		s.log.Warn("answers dropped during scoring",
			zap.String("attempt_id", attempt.ID),
			zap.Int("dropped", agg.Dropped))
	}

	rules := scoring.LoadSurveyRules(survey)
	report := scoring.Generate(agg.CourseScores, rules, agg.Scored, qcas, questions)
	overall := scoring.OverallScore(agg.Scored)
	s.recordSkippedRules(rules, qcas, questions)

	submission := model.AttemptSubmission{
		SubmittedAt:           s.now(),
		CourseScores:          agg.CourseScores,
		CourseFeedback:        report.CourseFeedback,
		DetailedFeedback:      report.DetailedFeedback,
		OverallSurveyFeedback: report.OverallFeedback,
		CourseOutcomes:        report.CourseOutcomes,
		ActualOverallScore:    overall,
	}
	if err := s.attempts.MarkSubmitted(ctx, attempt.ID, submission); err != nil {
		if errors.Is(err, repository.ErrNotModified) {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}

	// answer scores are written only once the attempt is frozen
	scores := make(map[string]float64, len(agg.Scored))
	for _, sa := range agg.Scored {
		scores[sa.ID] = sa.Score
	}
	if err := s.answers.SetScores(ctx, scores); err != nil {
		return nil, err
	}

	applySubmission(attempt, submission)
	s.afterSubmit(ctx, attempt, survey, agg, questions, time.Since(started))

	for _, a := range stored {
		if score, ok := scores[a.ID]; ok {
			a.ScoreAchieved = &score
		}
	}
	view := s.view(ctx, attempt, survey)
	view.Answers = stored
	return view, nil
}

func (s *AttemptService) loadScoringInputs(ctx context.Context, stored []*model.StudentAnswer) (map[string]scoring.Association, map[string]scoring.Question, error) {
	qcaIDs := make([]string, 0, len(stored))
	for _, a := range stored {
		qcaIDs = append(qcaIDs, a.QCAID)
	}
	qcaDocs, err := s.qcas.GetByIDs(ctx, qcaIDs)
	if err != nil {
		return nil, nil, err
	}

	qcas := make(map[string]scoring.Association, len(qcaDocs))
	questionIDs := make([]string, 0, len(qcaDocs))
	for _, doc := range qcaDocs {
		qcas[doc.ID] = scoring.LoadAssociation(doc)
		questionIDs = append(questionIDs, doc.QuestionID)
	}

	questionDocs, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, nil, err
	}
	questions := make(map[string]scoring.Question, len(questionDocs))
	for _, doc := range questionDocs {
		questions[doc.ID] = scoring.LoadQuestion(doc)
	}
	return qcas, questions, nil
}

func (s *AttemptService) recordSkippedRules(rules scoring.SurveyRules, qcas map[string]scoring.Association, questions map[string]scoring.Question) {
	s.metrics.RulesSkipped("survey", rules.SkippedRules)
	for _, a := range qcas {
		s.metrics.RulesSkipped("association", a.SkippedRules)
	}
	for _, q := range questions {
		s.metrics.RulesSkipped("question", q.SkippedRules)
	}
}

func (s *AttemptService) afterSubmit(ctx context.Context, attempt *model.SurveyAttempt, survey *model.Survey, agg scoring.AggregateResult, questions map[string]scoring.Question, took time.Duration) {
	s.metrics.ObserveSubmit(took, agg.Dropped)
	for _, sa := range agg.Scored {
		if q, ok := questions[sa.QuestionID]; ok {
			s.metrics.AnswerScored(string(q.Type))
		}
	}
	for _, outcome := range attempt.CourseOutcomes {
		s.metrics.Outcome(string(outcome))
	}

	overall := 0.0
	if attempt.ActualOverallScore != nil {
		overall = *attempt.ActualOverallScore
	}
	if s.scoreboard != nil {
		if err := s.scoreboard.Record(ctx, survey.ID, attempt.ID, overall); err != nil {
			s.log.Warn("failed to record scoreboard entry", zap.String("attempt_id", attempt.ID), zap.Error(err))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSurvey(survey.ID, msgAttemptSubmitted, AttemptSubmittedEvent{
			AttemptID:      attempt.ID,
			StudentID:      attempt.StudentID,
			CourseScores:   attempt.CourseScores,
			CourseOutcomes: attempt.CourseOutcomes,
			OverallScore:   overall,
		})
	}

	s.log.Info("attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.String("survey_id", survey.ID),
		zap.Int("scored", len(agg.Scored)),
		zap.Int("out_of_survey", agg.OutOfSurvey),
		zap.Duration("took", took))
}

// Results returns a submitted attempt to its student or the survey's teacher
func (s *AttemptService) Results(ctx context.Context, actor Actor, attemptID string) (*model.AttemptView, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, notFound("attempt")
	}

	survey, err := s.surveys.GetByID(ctx, attempt.SurveyID)
	if err != nil {
		return nil, err
	}
	isOwner := attempt.StudentID == actor.UserID
	isSurveyTeacher := actor.IsTeacher() && survey != nil && survey.CreatedBy == actor.UserID
	if !isOwner && !isSurveyTeacher {
		return nil, ErrForbidden
	}
	if !attempt.IsSubmitted {
		return nil, ErrNotSubmitted
	}

	view := s.view(ctx, attempt, survey)
	if isSurveyTeacher {
		s.withRank(ctx, view)
	}
	view.Answers, err = s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Mine lists the actor's attempts, newest first
func (s *AttemptService) Mine(ctx context.Context, actor Actor, includeAnswers bool, skip, limit int64) ([]*model.AttemptView, error) {
	attempts, err := s.attempts.ListByStudent(ctx, actor.UserID, skip, limit)
	if err != nil {
		return nil, err
	}

	surveys := make(map[string]*model.Survey)
	views := make([]*model.AttemptView, 0, len(attempts))
	for _, attempt := range attempts {
		survey, ok := surveys[attempt.SurveyID]
		if !ok {
			survey, err = s.surveys.GetByID(ctx, attempt.SurveyID)
			if err != nil {
				return nil, err
			}
			surveys[attempt.SurveyID] = survey
		}

		view := s.view(ctx, attempt, survey)
		if includeAnswers && attempt.IsSubmitted {
			if view.Answers, err = s.answers.ListByAttempt(ctx, attempt.ID); err != nil {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// BySurvey lists submitted attempts of a survey owned by the actor
func (s *AttemptService) BySurvey(ctx context.Context, actor Actor, surveyID string, includeAnswers bool, skip, limit int64) ([]*model.AttemptView, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, notFound("survey")
	}
	if survey.CreatedBy != actor.UserID {
		return nil, ErrForbidden
	}

	attempts, err := s.attempts.ListSubmittedBySurvey(ctx, survey.ID, skip, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*model.AttemptView, 0, len(attempts))
	for _, attempt := range attempts {
		view := s.view(ctx, attempt, survey)
		s.withRank(ctx, view)
		if includeAnswers {
			if view.Answers, err = s.answers.ListByAttempt(ctx, attempt.ID); err != nil {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// lockOpenAttempt takes the attempt lock and returns the actor's attempt as
// re-read under it. The attempt must still be unsubmitted; saves and submits
// of one attempt never overlap.
func (s *AttemptService) lockOpenAttempt(ctx context.Context, actor Actor, attemptID string) (*model.SurveyAttempt, func(), error) {
	attempt, err := s.ownAttempt(ctx, actor, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.IsSubmitted {
		return nil, nil, ErrAlreadySubmitted
	}
	if s.lock == nil {
		return attempt, func() {}, nil
	}

	release, ok, err := s.lock.Acquire(ctx, attempt.ID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrAttemptBusy
	}

	// re-read under the lock
	attempt, err = s.ownAttempt(ctx, actor, attemptID)
	if err == nil && attempt.IsSubmitted {
		err = ErrAlreadySubmitted
	}
	if err != nil {
		release()
		return nil, nil, err
	}
	return attempt, release, nil
}

func (s *AttemptService) ownAttempt(ctx context.Context, actor Actor, attemptID string) (*model.SurveyAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.StudentID != actor.UserID {
		return nil, notFound("attempt")
	}
	return attempt, nil
}

// view enriches an attempt with survey maxima and display data
func (s *AttemptService) view(ctx context.Context, attempt *model.SurveyAttempt, survey *model.Survey) *model.AttemptView {
	view := &model.AttemptView{
		SurveyAttempt:      *attempt,
		MaxScoresPerCourse: map[string]float64{},
		StudentDisplayName: unknownStudent,
	}
	if view.CourseOutcomes == nil {
		view.CourseOutcomes = map[string]model.OutcomeCategory{}
	}
	if survey != nil {
		if survey.MaxScoresPerCourse != nil {
			view.MaxScoresPerCourse = survey.MaxScoresPerCourse
		}
		overall := survey.MaxOverallScore
		view.MaxOverallScore = &overall
		view.SurveyTitle = survey.Title
		view.SurveyDescription = survey.Description
	}

	user, err := s.users.GetByID(ctx, attempt.StudentID)
	if err != nil {
		s.log.Debug("student lookup failed", zap.String("student_id", attempt.StudentID), zap.Error(err))
	} else if user != nil && user.DisplayName != "" {
		view.StudentDisplayName = user.DisplayName
	}
	return view
}

// withRank sets the attempt's position on its survey's scoreboard, when it has one
func (s *AttemptService) withRank(ctx context.Context, view *model.AttemptView) {
	if s.scoreboard == nil {
		return
	}
	rank, err := s.scoreboard.Rank(ctx, view.SurveyID, view.ID)
	if err != nil {
		s.log.Warn("scoreboard rank lookup failed", zap.String("attempt_id", view.ID), zap.Error(err))
		return
	}
	if rank > 0 {
		view.ScoreboardRank = &rank
	}
}

func applySubmission(attempt *model.SurveyAttempt, sub model.AttemptSubmission) {
	submittedAt := sub.SubmittedAt
	overall := sub.ActualOverallScore

	attempt.IsSubmitted = true
	attempt.SubmittedAt = &submittedAt
	attempt.CourseScores = sub.CourseScores
	attempt.CourseFeedback = sub.CourseFeedback
	attempt.DetailedFeedback = sub.DetailedFeedback
	attempt.OverallSurveyFeedback = sub.OverallSurveyFeedback
	attempt.CourseOutcomes = sub.CourseOutcomes
	attempt.ActualOverallScore = &overall
}
