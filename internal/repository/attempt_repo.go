package repository

import (
	"context"
	"selfeval/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptRepo handles MongoDB operations for survey attempts
type AttemptRepo interface {
	Create(ctx context.Context, attempt *model.SurveyAttempt) (string, error)
	GetByID(ctx context.Context, id string) (*model.SurveyAttempt, error)
	FindInProgress(ctx context.Context, studentID, surveyID string) (*model.SurveyAttempt, error)
	ListByStudent(ctx context.Context, studentID string, skip, limit int64) ([]*model.SurveyAttempt, error)
	ListSubmittedBySurvey(ctx context.Context, surveyID string, skip, limit int64) ([]*model.SurveyAttempt, error)
	HasSubmitted(ctx context.Context, surveyID string) (bool, error)
	ListIDsBySurvey(ctx context.Context, surveyID string) ([]string, error)
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
	MarkSubmitted(ctx context.Context, id string, result model.AttemptSubmission) error
}

type attemptRepo struct {
	collection *mongo.Collection
}

// NewAttemptRepo creates a new attempt repository
func NewAttemptRepo(db *mongo.Database) AttemptRepo {
	return &attemptRepo{
		collection: db.Collection(attemptsCollection),
	}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *model.SurveyAttempt) (string, error) {
	attempt.ID = ""
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, attempt)
	if err != nil {
		return "", err
	}
	attempt.ID = insertedID(result)
	return attempt.ID, nil
}

func (r *attemptRepo) GetByID(ctx context.Context, id string) (*model.SurveyAttempt, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindInProgress returns the student's unsubmitted attempt on a survey, if any
func (r *attemptRepo) FindInProgress(ctx context.Context, studentID, surveyID string) (*model.SurveyAttempt, error) {
	return r.findOne(ctx, bson.M{
		"student_id":   studentID,
		"survey_id":    surveyID,
		"is_submitted": false,
	})
}

func (r *attemptRepo) findOne(ctx context.Context, filter bson.M) (*model.SurveyAttempt, error) {
	var attempt model.SurveyAttempt
	err := r.collection.FindOne(ctx, filter).Decode(&attempt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepo) ListByStudent(ctx context.Context, studentID string, skip, limit int64) ([]*model.SurveyAttempt, error) {
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "started_at", Value: -1}})
	return r.find(ctx, bson.M{"student_id": studentID}, opts)
}

func (r *attemptRepo) ListSubmittedBySurvey(ctx context.Context, surveyID string, skip, limit int64) ([]*model.SurveyAttempt, error) {
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	return r.find(ctx, bson.M{"survey_id": surveyID, "is_submitted": true}, opts)
}

func (r *attemptRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.SurveyAttempt, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	attempts := []*model.SurveyAttempt{}
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepo) HasSubmitted(ctx context.Context, surveyID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"survey_id": surveyID, "is_submitted": true},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *attemptRepo) ListIDsBySurvey(ctx context.Context, surveyID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	attempts, err := r.find(ctx, bson.M{"survey_id": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *attemptRepo) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"survey_id": surveyID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// MarkSubmitted freezes the submission result onto an unsubmitted attempt.
// It returns ErrNotModified when the attempt is missing or already submitted.
func (r *attemptRepo) MarkSubmitted(ctx context.Context, id string, result model.AttemptSubmission) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"is_submitted":                  true,
		"submitted_at":                  result.SubmittedAt,
		"course_scores":                 result.CourseScores,
		"course_feedback":               result.CourseFeedback,
		"detailed_feedback":             result.DetailedFeedback,
		"overall_survey_feedback":       result.OverallSurveyFeedback,
		"course_outcome_categorization": result.CourseOutcomes,
		"actual_overall_survey_score":   result.ActualOverallScore,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "is_submitted": false}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotModified
	}
	return nil
}
