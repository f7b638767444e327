package repository

import (
	"context"
	"selfeval/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SurveyFilter narrows a survey listing
type SurveyFilter struct {
	Published *bool
	CreatedBy string
}

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) (string, error)
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context, filter SurveyFilter, skip, limit int64) ([]*model.Survey, error)
	ListByCourseID(ctx context.Context, courseID string) ([]*model.Survey, error)
	Update(ctx context.Context, survey *model.Survey) error
	UpdateMaxima(ctx context.Context, id string, perCourse map[string]float64, overall float64) error
	Delete(ctx context.Context, id string) (bool, error)
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		collection: db.Collection(surveysCollection),
	}
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	survey.ID = ""
	survey.CreatedAt = time.Now().UTC()
	survey.UpdatedAt = survey.CreatedAt

	result, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return "", err
	}
	survey.ID = insertedID(result)
	return survey.ID, nil
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var survey model.Survey
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) List(ctx context.Context, filter SurveyFilter, skip, limit int64) ([]*model.Survey, error) {
	query := bson.M{}
	if filter.Published != nil {
		query["is_published"] = *filter.Published
	}
	if filter.CreatedBy != "" {
		query["created_by"] = filter.CreatedBy
	}
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, query, opts)
}

func (r *surveyRepo) ListByCourseID(ctx context.Context, courseID string) ([]*model.Survey, error) {
	return r.find(ctx, bson.M{"course_ids": courseID}, pageOptions(0, 0))
}

func (r *surveyRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Survey, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *surveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	oid, err := objectID(survey.ID)
	if err != nil {
		return err
	}

	survey.UpdatedAt = time.Now().UTC()
	doc := *survey
	doc.ID = ""
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, &doc)
	return err
}

func (r *surveyRepo) UpdateMaxima(ctx context.Context, id string, perCourse map[string]float64, overall float64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"max_scores_per_course":    perCourse,
		"max_overall_survey_score": overall,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *surveyRepo) Delete(ctx context.Context, id string) (bool, error) {
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
