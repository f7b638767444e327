package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection     = "users"
	coursesCollection   = "courses"
	questionsCollection = "questions"
	qcasCollection      = "question_course_associations"
	surveysCollection   = "surveys"
	attemptsCollection  = "survey_attempts"
	answersCollection   = "student_answers"
)

var (
	// ErrInvalidID is returned for ids that are not 24-char hex object ids
	ErrInvalidID = errors.New("invalid id format")
	// ErrDuplicate is returned when a unique index rejects a write
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotModified is returned when a conditional update matched nothing
	ErrNotModified = errors.New("document not in expected state")
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

func insertedID(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

func writeErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func pageOptions(skip, limit int64) *options.FindOptions {
	opts := options.Find()
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// Failures are logged and do not stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) {
	createIndex(ctx, db.Collection(usersCollection), bson.D{{Key: "username", Value: 1}}, true, log)
	createIndex(ctx, db.Collection(coursesCollection), bson.D{{Key: "code", Value: 1}}, true, log)
	createIndex(ctx, db.Collection(qcasCollection), bson.D{
		{Key: "question_id", Value: 1},
		{Key: "course_id", Value: 1},
	}, true, log)
	createIndex(ctx, db.Collection(qcasCollection), bson.D{{Key: "course_id", Value: 1}}, false, log)
	createIndex(ctx, db.Collection(surveysCollection), bson.D{
		{Key: "created_by", Value: 1},
		{Key: "created_at", Value: -1},
	}, false, log)
	createIndex(ctx, db.Collection(surveysCollection), bson.D{{Key: "course_ids", Value: 1}}, false, log)
	createIndex(ctx, db.Collection(attemptsCollection), bson.D{
		{Key: "student_id", Value: 1},
		{Key: "survey_id", Value: 1},
		{Key: "is_submitted", Value: 1},
	}, false, log)
	createIndex(ctx, db.Collection(attemptsCollection), bson.D{
		{Key: "survey_id", Value: 1},
		{Key: "submitted_at", Value: -1},
	}, false, log)
	createIndex(ctx, db.Collection(answersCollection), bson.D{
		{Key: "survey_attempt_id", Value: 1},
		{Key: "qca_id", Value: 1},
		{Key: "student_id", Value: 1},
	}, true, log)

	log.Info("mongo indexes ensured")
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool, log *zap.Logger) {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		log.Warn("failed to create index", zap.String("collection", coll.Name()), zap.Error(err))
	}
}

// normalize converts driver container types into plain maps and slices
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.A:
		return normalizeList([]interface{}(t))
	case []interface{}:
		return normalizeList(t)
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.M:
		return normalizeMap(t)
	case map[string]interface{}:
		return normalizeMap(t)
	}
	return v
}

func normalizeList(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, item := range in {
		out[i] = normalize(item)
	}
	return out
}

func normalizeMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, item := range in {
		out[k] = normalize(item)
	}
	return out
}
