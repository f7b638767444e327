package repository

import (
	"context"
	"selfeval/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CourseRepo handles MongoDB operations for courses
type CourseRepo interface {
	Create(ctx context.Context, course *model.Course) (string, error)
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, skip, limit int64) ([]*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) (bool, error)
}

type courseRepo struct {
	collection *mongo.Collection
}

// NewCourseRepo creates a new course repository
func NewCourseRepo(db *mongo.Database) CourseRepo {
	return &courseRepo{
		collection: db.Collection(coursesCollection),
	}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) (string, error) {
	course.ID = ""
	result, err := r.collection.InsertOne(ctx, course)
	if err != nil {
		return "", writeErr(err)
	}
	course.ID = insertedID(result)
	return course.ID, nil
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *courseRepo) findOne(ctx context.Context, filter bson.M) (*model.Course, error) {
	var course model.Course
	err := r.collection.FindOne(ctx, filter).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, skip, limit int64) ([]*model.Course, error) {
	opts := pageOptions(skip, limit).SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	courses := []*model.Course{}
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oid, err := objectID(course.ID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"name":        course.Name,
		"code":        course.Code,
		"description": course.Description,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return writeErr(err)
}

func (r *courseRepo) Delete(ctx context.Context, id string) (bool, error) {
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
