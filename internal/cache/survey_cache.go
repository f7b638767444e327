package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"selfeval/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// SurveyCache caches the question list students receive for a survey
type SurveyCache interface {
	SetQuestions(ctx context.Context, surveyID string, questions []model.SurveyQuestionDetail) error
	GetQuestions(ctx context.Context, surveyID string) ([]model.SurveyQuestionDetail, error)
	Invalidate(ctx context.Context, surveyIDs ...string) error
}

type surveyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSurveyCache creates a new survey question cache
func NewSurveyCache(client *redis.Client, ttl time.Duration) SurveyCache {
	return &surveyCache{
		client: client,
		ttl:    ttl,
	}
}

func questionsKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:questions", surveyID)
}

func (c *surveyCache) SetQuestions(ctx context.Context, surveyID string, questions []model.SurveyQuestionDetail) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, questionsKey(surveyID), data, c.ttl).Err()
}

// GetQuestions returns nil, nil on a cache miss
func (c *surveyCache) GetQuestions(ctx context.Context, surveyID string) ([]model.SurveyQuestionDetail, error) {
	data, err := c.client.Get(ctx, questionsKey(surveyID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var questions []model.SurveyQuestionDetail
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *surveyCache) Invalidate(ctx context.Context, surveyIDs ...string) error {
	if len(surveyIDs) == 0 {
		return nil
	}
	keys := make([]string, len(surveyIDs))
	for i, id := range surveyIDs {
		keys[i] = questionsKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
