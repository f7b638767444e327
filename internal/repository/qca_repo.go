package repository

import (
	"context"
	"selfeval/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// QCAFilter narrows an association listing; empty fields match everything
type QCAFilter struct {
	QuestionID string
	CourseID   string
}

// QCARepo handles MongoDB operations for question-course associations
type QCARepo interface {
	Create(ctx context.Context, qca *model.QCA) (string, error)
	GetByID(ctx context.Context, id string) (*model.QCA, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.QCA, error)
	GetByQuestionAndCourse(ctx context.Context, questionID, courseID string) (*model.QCA, error)
	List(ctx context.Context, filter QCAFilter, skip, limit int64) ([]*model.QCA, error)
	ListByCourseIDs(ctx context.Context, courseIDs []string) ([]*model.QCA, error)
	Update(ctx context.Context, qca *model.QCA) error
	Delete(ctx context.Context, id string) (bool, error)
}

type qcaRepo struct {
	collection *mongo.Collection
}

// NewQCARepo creates a new association repository
func NewQCARepo(db *mongo.Database) QCARepo {
	return &qcaRepo{
		collection: db.Collection(qcasCollection),
	}
}

func (r *qcaRepo) Create(ctx context.Context, qca *model.QCA) (string, error) {
	qca.ID = ""
	result, err := r.collection.InsertOne(ctx, qca)
	if err != nil {
		return "", writeErr(err)
	}
	qca.ID = insertedID(result)
	return qca.ID, nil
}

func (r *qcaRepo) GetByID(ctx context.Context, id string) (*model.QCA, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *qcaRepo) GetByQuestionAndCourse(ctx context.Context, questionID, courseID string) (*model.QCA, error) {
	return r.findOne(ctx, bson.M{"question_id": questionID, "course_id": courseID})
}

func (r *qcaRepo) findOne(ctx context.Context, filter bson.M) (*model.QCA, error) {
	var qca model.QCA
	err := r.collection.FindOne(ctx, filter).Decode(&qca)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qca, nil
}

func (r *qcaRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.QCA, error) {
	if len(ids) == 0 {
		return []*model.QCA{}, nil
	}
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, 0, 0)
}

func (r *qcaRepo) List(ctx context.Context, filter QCAFilter, skip, limit int64) ([]*model.QCA, error) {
	query := bson.M{}
	if filter.QuestionID != "" {
		query["question_id"] = filter.QuestionID
	}
	if filter.CourseID != "" {
		query["course_id"] = filter.CourseID
	}
	return r.find(ctx, query, skip, limit)
}

// ListByCourseIDs returns associations of the given courses in insertion order
func (r *qcaRepo) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]*model.QCA, error) {
	if len(courseIDs) == 0 {
		return []*model.QCA{}, nil
	}
	return r.find(ctx, bson.M{"course_id": bson.M{"$in": courseIDs}}, 0, 0)
}

func (r *qcaRepo) find(ctx context.Context, filter bson.M, skip, limit int64) ([]*model.QCA, error) {
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	qcas := []*model.QCA{}
	if err := cursor.All(ctx, &qcas); err != nil {
		return nil, err
	}
	return qcas, nil
}

func (r *qcaRepo) Update(ctx context.Context, qca *model.QCA) error {
	oid, err := objectID(qca.ID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"answer_association_type":  qca.AssociationType,
		"feedbacks_based_on_score": qca.Feedbacks,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *qcaRepo) Delete(ctx context.Context, id string) (bool, error) {
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
