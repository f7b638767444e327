package repository

import (
	"context"
	"selfeval/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnswerRepo handles MongoDB operations for student answers
type AnswerRepo interface {
	Upsert(ctx context.Context, answer *model.StudentAnswer) (*model.StudentAnswer, error)
	ListByAttempt(ctx context.Context, attemptID string) ([]*model.StudentAnswer, error)
	SetScores(ctx context.Context, scores map[string]float64) error
	DeleteByAttempts(ctx context.Context, attemptIDs []string) (int64, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{
		collection: db.Collection(answersCollection),
	}
}

// Upsert stores the answer keyed on (attempt, association, student) and
// clears any previously computed score.
func (r *answerRepo) Upsert(ctx context.Context, answer *model.StudentAnswer) (*model.StudentAnswer, error) {
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now().UTC()
	}

	filter := bson.M{
		"survey_attempt_id": answer.SurveyAttemptID,
		"qca_id":            answer.QCAID,
		"student_id":        answer.StudentID,
	}
	update := bson.M{"$set": bson.M{
		"question_id":    answer.QuestionID,
		"answer_value":   answer.AnswerValue,
		"answered_at":    answer.AnsweredAt,
		"score_achieved": nil,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.StudentAnswer
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, writeErr(err)
	}
	stored.AnswerValue = normalize(stored.AnswerValue)
	return &stored, nil
}

func (r *answerRepo) ListByAttempt(ctx context.Context, attemptID string) ([]*model.StudentAnswer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "answered_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"survey_attempt_id": attemptID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	answers := []*model.StudentAnswer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	for _, a := range answers {
		a.AnswerValue = normalize(a.AnswerValue)
	}
	return answers, nil
}

// SetScores writes score_achieved for each answer id in one bulk write
func (r *answerRepo) SetScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(scores))
	for id, score := range scores {
		oid, err := objectID(id)
		if err != nil {
			return err
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid}).
			SetUpdate(bson.M{"$set": bson.M{"score_achieved": score}}))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *answerRepo) DeleteByAttempts(ctx context.Context, attemptIDs []string) (int64, error) {
	if len(attemptIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"survey_attempt_id": bson.M{"$in": attemptIDs}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
