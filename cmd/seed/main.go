package main

import (
	"context"
	"errors"
	"selfeval/internal/app"
	"selfeval/internal/config"
	"selfeval/internal/logger"
	"selfeval/internal/model"
	"selfeval/internal/service"
	"time"

	"go.uber.org/zap"
)

const (
	teacherUsername = "teacher@example.com"
	studentUsername = "student@example.com"
	demoPassword    = "password123"
)

func f64(v float64) *float64 { return &v }

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect", zap.Error(err))
	}
	defer a.Close(context.Background())

	svcs := a.NewServices(cfg, nil)
	if err := seed(ctx, svcs, log); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			log.Info("demo data already present, nothing to do")
			return
		}
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, svcs *app.Services, log *zap.Logger) error {
	teacherResp, err := svcs.Auth.Signup(ctx, &model.SignupRequest{
		Username:    teacherUsername,
		Password:    demoPassword,
		DisplayName: "Demo Teacher",
		Role:        model.RoleTeacher,
	})
	if err != nil {
		return err
	}
	teacher := service.Actor{UserID: teacherResp.User.ID, Role: model.RoleTeacher}

	if _, err := svcs.Auth.Signup(ctx, &model.SignupRequest{
		Username:    studentUsername,
		Password:    demoPassword,
		DisplayName: "Demo Student",
		Role:        model.RoleStudent,
	}); err != nil {
		return err
	}

	courses := map[string]string{}
	for _, c := range []struct{ code, name, desc string }{
		{"CS101", "Programming Basics", "Variables, control flow and functions."},
		{"DS201", "Data Structures", "Lists, trees, hashing and complexity."},
	} {
		name, code, desc := c.name, c.code, c.desc
		course, err := svcs.Courses.Create(ctx, &model.CourseRequest{Name: &name, Code: &code, Description: &desc})
		if err != nil {
			return err
		}
		courses[code] = course.ID
	}

	questionReqs := []*model.QuestionRequest{
		{
			Title:         "Have you written a program before?",
			AnswerType:    model.AnswerTypeMultipleChoice,
			AnswerOptions: map[string]interface{}{"a": "Yes, several", "b": "Once or twice", "c": "Never"},
			ScoringRules:  map[string]interface{}{"option_scores": map[string]interface{}{"a": 10.0, "b": 5.0, "c": 0.0}},
			DefaultFeedbacks: []model.ScoreFeedbackItem{
				{ScoreValue: f64(5), Comparison: model.CompareLT, Feedback: "Start with an introductory tutorial."},
			},
		},
		{
			Title:         "Which of these have you used?",
			AnswerType:    model.AnswerTypeMultipleSelect,
			AnswerOptions: map[string]interface{}{"a": "Loops", "b": "Recursion", "c": "Hash maps", "d": "None of these"},
			ScoringRules: map[string]interface{}{
				"correct_option_keys":   []interface{}{"a", "b", "c"},
				"score_per_correct":     3.0,
				"penalty_per_incorrect": 5.0,
			},
		},
		{
			Title:      "What keyword declares a function in Go?",
			AnswerType: model.AnswerTypeInput,
			ScoringRules: map[string]interface{}{
				"expected_answers": []interface{}{
					map[string]interface{}{"text": "func", "score": 10.0},
				},
				"default_incorrect_score": 0.0,
			},
		},
		{
			Title:         "How many hours a week can you study?",
			AnswerType:    model.AnswerTypeRange,
			AnswerOptions: map[string]interface{}{"min": 0.0, "max": 20.0},
			ScoringRules:  map[string]interface{}{"target_value": 10.0, "score_at_target": 10.0, "score_per_deviation_unit": -1.0},
		},
		{
			Title:         "How anxious does debugging make you?",
			AnswerType:    model.AnswerTypeRange,
			AnswerOptions: map[string]interface{}{"min": 0.0, "max": 10.0},
			ScoringRules:  map[string]interface{}{"target_value": 10.0, "score_at_target": 10.0, "score_per_deviation_unit": -1.0},
		},
	}
	questions := make([]string, 0, len(questionReqs))
	for _, req := range questionReqs {
		q, err := svcs.Questions.Create(ctx, teacher, req)
		if err != nil {
			return err
		}
		questions = append(questions, q.ID)
	}

	links := []model.CreateQCARequest{
		{QuestionID: questions[0], CourseID: courses["CS101"], Feedbacks: []model.ScoreFeedbackItem{
			{ScoreValue: f64(10), Comparison: model.CompareEQ, Feedback: "You already have hands-on experience."},
		}},
		{QuestionID: questions[1], CourseID: courses["CS101"]},
		{QuestionID: questions[1], CourseID: courses["DS201"]},
		{QuestionID: questions[2], CourseID: courses["CS101"]},
		{QuestionID: questions[3], CourseID: courses["CS101"]},
		{QuestionID: questions[3], CourseID: courses["DS201"]},
		{QuestionID: questions[4], CourseID: courses["DS201"], AssociationType: model.AssociationNegative},
	}
	for i := range links {
		if _, err := svcs.QCAs.Create(ctx, &links[i]); err != nil {
			return err
		}
	}

	title := "Which course fits you?"
	description := "A short self-assessment to place you in the right course."
	published := true
	survey, err := svcs.Surveys.Create(ctx, teacher, &model.SurveyRequest{
		Title:       &title,
		Description: &description,
		CourseIDs:   &[]string{courses["CS101"], courses["DS201"]},
		IsPublished: &published,
		FeedbackThresholds: &map[string][]model.ScoreFeedbackItem{
			courses["CS101"]: {
				{ScoreValue: f64(20), Comparison: model.CompareLT, Feedback: "CS101 will give you a solid foundation."},
				{ScoreValue: f64(35), Comparison: model.CompareGTE, Feedback: "You know most of CS101 already."},
			},
			courses["DS201"]: {
				{ScoreValue: f64(10), Comparison: model.CompareGTE, Feedback: "You are ready for data structures."},
			},
		},
		OutcomeThresholds: &map[string][]model.OutcomeThresholdItem{
			courses["CS101"]: {
				{ScoreValue: f64(35), Comparison: model.CompareGTE, Outcome: model.OutcomeEligibleERPL},
				{ScoreValue: f64(10), Comparison: model.CompareGTE, Outcome: model.OutcomeRecommended},
				{ScoreValue: f64(10), Comparison: model.CompareLT, Outcome: model.OutcomeNotSuitable},
			},
			courses["DS201"]: {
				{ScoreValue: f64(10), Comparison: model.CompareGTE, Outcome: model.OutcomeRecommended},
				{ScoreValue: f64(10), Comparison: model.CompareLT, Outcome: model.OutcomeNotSuitable},
			},
		},
	})
	if err != nil {
		return err
	}

	log.Info("demo data seeded",
		zap.String("teacher", teacherUsername),
		zap.String("student", studentUsername),
		zap.String("survey_id", survey.ID),
		zap.Float64("max_overall_score", survey.MaxOverallScore))
	return nil
}
