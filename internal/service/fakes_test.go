package service

import (
	"context"
	"fmt"
	"selfeval/internal/cache"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type idGen struct {
	mu sync.Mutex
	n  int
}

func (g *idGen) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%024x", g.n)
}

func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

// users

type fakeUserRepo struct {
	ids   *idGen
	users map[string]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) (string, error) {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return "", repository.ErrDuplicate
		}
	}
	u.ID = r.ids.next()
	cp := *u
	r.users[u.ID] = &cp
	return u.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// courses

type fakeCourseRepo struct {
	ids     *idGen
	courses map[string]*model.Course
}

func (r *fakeCourseRepo) Create(_ context.Context, c *model.Course) (string, error) {
	for _, existing := range r.courses {
		if existing.Code == c.Code {
			return "", repository.ErrDuplicate
		}
	}
	c.ID = r.ids.next()
	cp := *c
	r.courses[c.ID] = &cp
	return c.ID, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := r.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range r.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCourseRepo) List(_ context.Context, skip, limit int64) ([]*model.Course, error) {
	out := make([]*model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, skip, limit), nil
}

func (r *fakeCourseRepo) Update(_ context.Context, c *model.Course) error {
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := r.courses[id]
	delete(r.courses, id)
	return ok, nil
}

// questions

type fakeQuestionRepo struct {
	ids       *idGen
	questions map[string]*model.Question
}

func (r *fakeQuestionRepo) Create(_ context.Context, q *model.Question) (string, error) {
	q.ID = r.ids.next()
	cp := *q
	r.questions[q.ID] = &cp
	return q.ID, nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	if q, ok := r.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeQuestionRepo) GetByIDs(_ context.Context, ids []string) ([]*model.Question, error) {
	out := []*model.Question{}
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) List(_ context.Context, skip, limit int64) ([]*model.Question, error) {
	out := make([]*model.Question, 0, len(r.questions))
	for _, q := range r.questions {
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, skip, limit), nil
}

func (r *fakeQuestionRepo) Update(_ context.Context, q *model.Question) error {
	cp := *q
	r.questions[q.ID] = &cp
	return nil
}

func (r *fakeQuestionRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := r.questions[id]
	delete(r.questions, id)
	return ok, nil
}

// associations

type fakeQCARepo struct {
	ids  *idGen
	qcas []*model.QCA
}

func (r *fakeQCARepo) Create(_ context.Context, q *model.QCA) (string, error) {
	for _, existing := range r.qcas {
		if existing.QuestionID == q.QuestionID && existing.CourseID == q.CourseID {
			return "", repository.ErrDuplicate
		}
	}
	q.ID = r.ids.next()
	cp := *q
	r.qcas = append(r.qcas, &cp)
	return q.ID, nil
}

func (r *fakeQCARepo) GetByID(_ context.Context, id string) (*model.QCA, error) {
	for _, q := range r.qcas {
		if q.ID == id {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeQCARepo) GetByIDs(_ context.Context, ids []string) ([]*model.QCA, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []*model.QCA{}
	for _, q := range r.qcas {
		if want[q.ID] {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeQCARepo) GetByQuestionAndCourse(_ context.Context, questionID, courseID string) (*model.QCA, error) {
	for _, q := range r.qcas {
		if q.QuestionID == questionID && q.CourseID == courseID {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeQCARepo) List(_ context.Context, f repository.QCAFilter, skip, limit int64) ([]*model.QCA, error) {
	out := []*model.QCA{}
	for _, q := range r.qcas {
		if (f.QuestionID == "" || q.QuestionID == f.QuestionID) && (f.CourseID == "" || q.CourseID == f.CourseID) {
			cp := *q
			out = append(out, &cp)
		}
	}
	return page(out, skip, limit), nil
}

func (r *fakeQCARepo) ListByCourseIDs(_ context.Context, courseIDs []string) ([]*model.QCA, error) {
	want := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	out := []*model.QCA{}
	for _, q := range r.qcas {
		if want[q.CourseID] {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeQCARepo) Update(_ context.Context, q *model.QCA) error {
	for i, existing := range r.qcas {
		if existing.ID == q.ID {
			cp := *q
			r.qcas[i] = &cp
		}
	}
	return nil
}

func (r *fakeQCARepo) Delete(_ context.Context, id string) (bool, error) {
	for i, q := range r.qcas {
		if q.ID == id {
			r.qcas = append(r.qcas[:i], r.qcas[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// surveys

type fakeSurveyRepo struct {
	ids     *idGen
	surveys map[string]*model.Survey
}

func (r *fakeSurveyRepo) Create(_ context.Context, s *model.Survey) (string, error) {
	s.ID = r.ids.next()
	cp := *s
	r.surveys[s.ID] = &cp
	return s.ID, nil
}

func (r *fakeSurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	if s, ok := r.surveys[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeSurveyRepo) List(_ context.Context, f repository.SurveyFilter, skip, limit int64) ([]*model.Survey, error) {
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if f.Published != nil && s.IsPublished != *f.Published {
			continue
		}
		if f.CreatedBy != "" && s.CreatedBy != f.CreatedBy {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, skip, limit), nil
}

func (r *fakeSurveyRepo) ListByCourseID(_ context.Context, courseID string) ([]*model.Survey, error) {
	out := []*model.Survey{}
	for _, s := range r.surveys {
		for _, id := range s.CourseIDs {
			if id == courseID {
				cp := *s
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeSurveyRepo) Update(_ context.Context, s *model.Survey) error {
	cp := *s
	cp.Questions = nil
	r.surveys[s.ID] = &cp
	return nil
}

func (r *fakeSurveyRepo) UpdateMaxima(_ context.Context, id string, perCourse map[string]float64, overall float64) error {
	if s, ok := r.surveys[id]; ok {
		s.MaxScoresPerCourse = perCourse
		s.MaxOverallScore = overall
	}
	return nil
}

func (r *fakeSurveyRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := r.surveys[id]
	delete(r.surveys, id)
	return ok, nil
}

// attempts

type fakeAttemptRepo struct {
	mu       sync.Mutex
	ids      *idGen
	attempts []*model.SurveyAttempt
}

func (r *fakeAttemptRepo) Create(_ context.Context, a *model.SurveyAttempt) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.ids.next()
	cp := *a
	r.attempts = append(r.attempts, &cp)
	return a.ID, nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id string) (*model.SurveyAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) FindInProgress(_ context.Context, studentID, surveyID string) (*model.SurveyAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.SurveyID == surveyID && !a.IsSubmitted {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) filter(keep func(*model.SurveyAttempt) bool) []*model.SurveyAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.SurveyAttempt{}
	for _, a := range r.attempts {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeAttemptRepo) ListByStudent(_ context.Context, studentID string, skip, limit int64) ([]*model.SurveyAttempt, error) {
	out := r.filter(func(a *model.SurveyAttempt) bool { return a.StudentID == studentID })
	return page(out, skip, limit), nil
}

func (r *fakeAttemptRepo) ListSubmittedBySurvey(_ context.Context, surveyID string, skip, limit int64) ([]*model.SurveyAttempt, error) {
	out := r.filter(func(a *model.SurveyAttempt) bool { return a.SurveyID == surveyID && a.IsSubmitted })
	return page(out, skip, limit), nil
}

func (r *fakeAttemptRepo) HasSubmitted(ctx context.Context, surveyID string) (bool, error) {
	out, _ := r.ListSubmittedBySurvey(ctx, surveyID, 0, 0)
	return len(out) > 0, nil
}

func (r *fakeAttemptRepo) ListIDsBySurvey(_ context.Context, surveyID string) ([]string, error) {
	ids := []string{}
	for _, a := range r.filter(func(a *model.SurveyAttempt) bool { return a.SurveyID == surveyID }) {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *fakeAttemptRepo) DeleteBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.attempts[:0]
	var n int64
	for _, a := range r.attempts {
		if a.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.attempts = kept
	return n, nil
}

func (r *fakeAttemptRepo) MarkSubmitted(_ context.Context, id string, sub model.AttemptSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id && !a.IsSubmitted {
			applySubmission(a, sub)
			return nil
		}
	}
	return repository.ErrNotModified
}

// hookedAttemptRepo runs onGet on every attempt it reads
type hookedAttemptRepo struct {
	*fakeAttemptRepo
	onGet func(a *model.SurveyAttempt)
}

func (r *hookedAttemptRepo) GetByID(ctx context.Context, id string) (*model.SurveyAttempt, error) {
	a, err := r.fakeAttemptRepo.GetByID(ctx, id)
	if a != nil && r.onGet != nil {
		r.onGet(a)
	}
	return a, err
}

// answers

type fakeAnswerRepo struct {
	mu      sync.Mutex
	ids     *idGen
	answers []*model.StudentAnswer
}

func (r *fakeAnswerRepo) Upsert(_ context.Context, a *model.StudentAnswer) (*model.StudentAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.answers {
		if existing.SurveyAttemptID == a.SurveyAttemptID && existing.QCAID == a.QCAID && existing.StudentID == a.StudentID {
			existing.QuestionID = a.QuestionID
			existing.AnswerValue = a.AnswerValue
			existing.AnsweredAt = a.AnsweredAt
			existing.ScoreAchieved = nil
			cp := *existing
			return &cp, nil
		}
	}
	a.ID = r.ids.next()
	cp := *a
	r.answers = append(r.answers, &cp)
	out := cp
	return &out, nil
}

func (r *fakeAnswerRepo) ListByAttempt(_ context.Context, attemptID string) ([]*model.StudentAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.StudentAnswer{}
	for _, a := range r.answers {
		if a.SurveyAttemptID == attemptID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAnswerRepo) SetScores(_ context.Context, scores map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if s, ok := scores[a.ID]; ok {
			score := s
			a.ScoreAchieved = &score
		}
	}
	return nil
}

func (r *fakeAnswerRepo) DeleteByAttempts(_ context.Context, attemptIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(attemptIDs))
	for _, id := range attemptIDs {
		drop[id] = true
	}
	kept := r.answers[:0]
	var n int64
	for _, a := range r.answers {
		if drop[a.SurveyAttemptID] {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.answers = kept
	return n, nil
}

// caches and broadcaster

type fakeLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLock) Acquire(_ context.Context, attemptID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[attemptID] {
		return nil, false, nil
	}
	l.held[attemptID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, attemptID)
	}, true, nil
}

type fakeSurveyCache struct {
	entries     map[string][]model.SurveyQuestionDetail
	invalidated []string
}

func (c *fakeSurveyCache) SetQuestions(_ context.Context, surveyID string, q []model.SurveyQuestionDetail) error {
	c.entries[surveyID] = q
	return nil
}

func (c *fakeSurveyCache) GetQuestions(_ context.Context, surveyID string) ([]model.SurveyQuestionDetail, error) {
	return c.entries[surveyID], nil
}

func (c *fakeSurveyCache) Invalidate(_ context.Context, surveyIDs ...string) error {
	for _, id := range surveyIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type fakeScoreboard struct {
	scores map[string]map[string]float64
}

func (b *fakeScoreboard) Record(_ context.Context, surveyID, attemptID string, score float64) error {
	if b.scores[surveyID] == nil {
		b.scores[surveyID] = map[string]float64{}
	}
	b.scores[surveyID][attemptID] = score
	return nil
}

func (b *fakeScoreboard) Top(_ context.Context, surveyID string, limit int) ([]cache.ScoreboardEntry, error) {
	out := []cache.ScoreboardEntry{}
	for id, score := range b.scores[surveyID] {
		out = append(out, cache.ScoreboardEntry{AttemptID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return page(out, 0, int64(limit)), nil
}

func (b *fakeScoreboard) Rank(ctx context.Context, surveyID, attemptID string) (int64, error) {
	board, _ := b.Top(ctx, surveyID, len(b.scores[surveyID]))
	for _, e := range board {
		if e.AttemptID == attemptID {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

func (b *fakeScoreboard) Clear(_ context.Context, surveyID string) error {
	delete(b.scores, surveyID)
	return nil
}

type broadcast struct {
	surveyID string
	msgType  string
	payload  interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *fakeBroadcaster) BroadcastToSurvey(surveyID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{surveyID, msgType, payload})
}

// env wires every service over the fakes
type env struct {
	users       *fakeUserRepo
	courses     *fakeCourseRepo
	questions   *fakeQuestionRepo
	qcas        *fakeQCARepo
	surveys     *fakeSurveyRepo
	attempts    *fakeAttemptRepo
	answers     *fakeAnswerRepo
	lock        *fakeLock
	cache       *fakeSurveyCache
	scoreboard  *fakeScoreboard
	broadcaster *fakeBroadcaster

	auth       *AuthService
	courseSvc  *CourseService
	questionSv *QuestionService
	qcaSvc     *QCAService
	surveySvc  *SurveyService
	attemptSvc *AttemptService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ids := &idGen{}
	e := &env{
		users:       &fakeUserRepo{ids: ids, users: map[string]*model.User{}},
		courses:     &fakeCourseRepo{ids: ids, courses: map[string]*model.Course{}},
		questions:   &fakeQuestionRepo{ids: ids, questions: map[string]*model.Question{}},
		qcas:        &fakeQCARepo{ids: ids},
		surveys:     &fakeSurveyRepo{ids: ids, surveys: map[string]*model.Survey{}},
		attempts:    &fakeAttemptRepo{ids: ids},
		answers:     &fakeAnswerRepo{ids: ids},
		lock:        &fakeLock{held: map[string]bool{}},
		cache:       &fakeSurveyCache{entries: map[string][]model.SurveyQuestionDetail{}},
		scoreboard:  &fakeScoreboard{scores: map[string]map[string]float64{}},
		broadcaster: &fakeBroadcaster{},
	}
	log := zap.NewNop()

	refresher := NewSurveyRefresher(e.surveys, e.qcas, e.cache, log)
	e.auth = NewAuthService(e.users, "test-secret-test-secret-test-secret", time.Hour)
	e.courseSvc = NewCourseService(e.courses)
	e.questionSv = NewQuestionService(e.questions, e.qcas, refresher)
	e.qcaSvc = NewQCAService(e.qcas, e.questions, e.courses, refresher)
	e.surveySvc = NewSurveyService(SurveyDeps{
		Surveys:    e.surveys,
		Courses:    e.courses,
		QCAs:       e.qcas,
		Questions:  e.questions,
		Attempts:   e.attempts,
		Answers:    e.answers,
		Cache:      e.cache,
		Scoreboard: e.scoreboard,
		Refresher:  refresher,
		Log:        log,
	})
	e.attemptSvc = e.newAttemptService(e.attempts)
	return e
}

// newAttemptService builds an attempt service over the env's fakes and the given attempt store
func (e *env) newAttemptService(attempts repository.AttemptRepo) *AttemptService {
	return NewAttemptService(AttemptDeps{
		Attempts:    attempts,
		Answers:     e.answers,
		Surveys:     e.surveys,
		QCAs:        e.qcas,
		Questions:   e.questions,
		Users:       e.users,
		SurveySvc:   e.surveySvc,
		Lock:        e.lock,
		Scoreboard:  e.scoreboard,
		Broadcaster: e.broadcaster,
		Log:         zap.NewNop(),
	})
}
