package service

import (
	"context"
	"selfeval/internal/model"
	"selfeval/internal/scoring"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestionRejectsInconsistentRules(t *testing.T) {
	s := newScenario(t)

	_, err := s.questionSv.Create(context.Background(), s.teacher, &model.QuestionRequest{
		Title:         "Pick one",
		AnswerType:    model.AnswerTypeMultipleChoice,
		AnswerOptions: map[string]interface{}{"a": "A"},
		ScoringRules:  map[string]interface{}{"correct_option_key": "z"},
	})
	assert.ErrorIs(t, err, scoring.ErrInvalidQuestion)
}

func TestUpdateQuestionKeepsAuthorAndInvalidates(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	before, err := s.questionSv.Get(ctx, s.q3)
	require.NoError(t, err)

	updated, err := s.questionSv.Update(ctx, s.q3, &model.QuestionRequest{
		Title:        "Name the gopher's language",
		AnswerType:   model.AnswerTypeInput,
		ScoringRules: map[string]interface{}{"expected_answers": []interface{}{"go", "golang"}},
	})
	require.NoError(t, err)
	assert.Equal(t, before.CreatedBy, updated.CreatedBy)
	assert.Equal(t, s.teacher.UserID, updated.CreatedBy)
	assert.Contains(t, s.cache.invalidated, s.surveyID)

	_, err = s.questionSv.Update(ctx, "000000000000000000000fff", &model.QuestionRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQuestionLeavesAssociations(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	require.NoError(t, s.questionSv.Delete(ctx, s.q3))
	assert.Len(t, s.qcas.qcas, 4)
	assert.ErrorIs(t, s.questionSv.Delete(ctx, s.q3), ErrNotFound)

	survey, err := s.surveySvc.Get(ctx, s.student, s.surveyID, true)
	require.NoError(t, err)
	assert.Len(t, survey.Questions, 2)
}
