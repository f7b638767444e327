package repository

import (
	"errors"
	"selfeval/internal/model"
	"selfeval/internal/scoring"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"scalar", "a", "a"},
		{"nil", nil, nil},
		{"array", primitive.A{"a", int32(2)}, []interface{}{"a", int32(2)}},
		{
			"ordered document",
			primitive.D{{Key: "min", Value: 0.0}, {Key: "max", Value: 10.0}},
			map[string]interface{}{"min": 0.0, "max": 10.0},
		},
		{
			"nested",
			primitive.M{"expected_answers": primitive.A{primitive.D{{Key: "text", Value: "Go"}}}},
			map[string]interface{}{"expected_answers": []interface{}{map[string]interface{}{"text": "Go"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestNormalizeMapNil(t *testing.T) {
	assert.Nil(t, normalizeMap(nil))
}

func TestNormalizeRoundTrip(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"rules": bson.M{"correct_option_keys": bson.A{"a", "b"}}})
	require.NoError(t, err)

	var doc struct {
		Rules map[string]interface{} `bson:"rules"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))

	got := normalizeMap(doc.Rules)
	assert.Equal(t, []interface{}{"a", "b"}, got["correct_option_keys"])
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = objectID("not-an-id")
	assert.True(t, errors.Is(err, ErrInvalidID))

	_, err = objectIDs([]string{oid.Hex(), "bad"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(0, 0)
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)

	opts = pageOptions(20, 10)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
}

func TestDecodeSkipsMalformedRuleEntries(t *testing.T) {
	t.Run("association feedback", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{
			"question_id":             "q1",
			"course_id":               "c1",
			"answer_association_type": "positive",
			"feedbacks_based_on_score": bson.A{
				bson.M{"score_value": "five", "comparison": "gte", "feedback": "Bad threshold"},
				bson.M{"score_value": int32(5), "comparison": "gte", "feedback": "Solid basics"},
			},
		})
		require.NoError(t, err)

		var qca model.QCA
		require.NoError(t, bson.Unmarshal(raw, &qca))
		require.Len(t, qca.Feedbacks, 2)
		assert.Nil(t, qca.Feedbacks[0].ScoreValue)

		a := scoring.LoadAssociation(&qca)
		assert.Equal(t, 1, a.SkippedRules)
		require.Len(t, a.Feedback, 1)
		assert.Equal(t, 5.0, a.Feedback[0].Threshold)
		assert.Equal(t, "Solid basics", a.Feedback[0].Payload)
	})

	t.Run("question default feedback", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{
			"title":         "Do you know Go?",
			"answer_type":   "multiple_choice",
			"scoring_rules": bson.M{},
			"default_feedbacks_on_score": bson.A{
				"not a document",
				bson.M{"score_value": 10.0, "comparison": model.CompareGTE, "feedback": "Great"},
			},
		})
		require.NoError(t, err)

		var q model.Question
		require.NoError(t, bson.Unmarshal(raw, &q))

		loaded := scoring.LoadQuestion(&q)
		assert.Equal(t, 1, loaded.SkippedRules)
		require.Len(t, loaded.DefaultFeedback, 1)
		assert.Equal(t, "Great", loaded.DefaultFeedback[0].Payload)
	})

	t.Run("survey thresholds", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{
			"title":      "Readiness check",
			"course_ids": bson.A{"c1"},
			"course_skill_total_score_thresholds": bson.M{
				"c1": bson.A{bson.M{"score_value": int64(3), "comparison": "gt", "feedback": 7}},
			},
			"course_outcome_thresholds": bson.M{
				"c1": bson.A{
					bson.M{"score_value": bson.A{1}, "comparison": "lt", "outcome": "NOT_SUITABLE_FOR_COURSE"},
					bson.M{"score_value": 5.0, "comparison": "gte", "outcome": "RECOMMENDED_TO_TAKE_COURSE"},
				},
			},
		})
		require.NoError(t, err)

		var survey model.Survey
		require.NoError(t, bson.Unmarshal(raw, &survey))

		rules := scoring.LoadSurveyRules(&survey)
		assert.Equal(t, 2, rules.SkippedRules)
		assert.Empty(t, rules.Feedback["c1"])
		require.Len(t, rules.Outcomes["c1"], 1)
		assert.Equal(t, model.OutcomeRecommended, rules.Outcomes["c1"][0].Payload)
	})
}

func TestDecodeRuleEntriesRoundTrip(t *testing.T) {
	five := 5.0
	in := model.QCA{
		QuestionID:      "q1",
		CourseID:        "c1",
		AssociationType: model.AssociationNegative,
		Feedbacks: []model.ScoreFeedbackItem{
			{ScoreValue: &five, Comparison: model.CompareLT, Feedback: "Needs work"},
		},
	}
	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var out model.QCA
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
