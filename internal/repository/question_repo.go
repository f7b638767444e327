package repository

import (
	"context"
	"selfeval/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// QuestionRepo handles MongoDB operations for questions
type QuestionRepo interface {
	Create(ctx context.Context, question *model.Question) (string, error)
	GetByID(ctx context.Context, id string) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Question, error)
	List(ctx context.Context, skip, limit int64) ([]*model.Question, error)
	Update(ctx context.Context, question *model.Question) error
	Delete(ctx context.Context, id string) (bool, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection(questionsCollection),
	}
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) (string, error) {
	question.ID = ""
	question.CreatedAt = time.Now().UTC()
	question.UpdatedAt = question.CreatedAt

	result, err := r.collection.InsertOne(ctx, question)
	if err != nil {
		return "", writeErr(err)
	}
	question.ID = insertedID(result)
	return question.ID, nil
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var question model.Question
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeQuestion(&question)
	return &question, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Question, error) {
	if len(ids) == 0 {
		return []*model.Question{}, nil
	}
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, 0, 0)
}

func (r *questionRepo) List(ctx context.Context, skip, limit int64) ([]*model.Question, error) {
	return r.find(ctx, bson.M{}, skip, limit)
}

func (r *questionRepo) find(ctx context.Context, filter bson.M, skip, limit int64) ([]*model.Question, error) {
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	questions := []*model.Question{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	for _, q := range questions {
		normalizeQuestion(q)
	}
	return questions, nil
}

func (r *questionRepo) Update(ctx context.Context, question *model.Question) error {
	oid, err := objectID(question.ID)
	if err != nil {
		return err
	}

	question.UpdatedAt = time.Now().UTC()
	doc := *question
	doc.ID = ""
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, &doc)
	return writeErr(err)
}

func (r *questionRepo) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func normalizeQuestion(q *model.Question) {
	q.AnswerOptions = normalizeMap(q.AnswerOptions)
	q.ScoringRules = normalizeMap(q.ScoringRules)
}
