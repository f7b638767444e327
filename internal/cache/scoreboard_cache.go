package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ScoreboardCache ranks submitted attempts of a survey by overall score
type ScoreboardCache interface {
	Record(ctx context.Context, surveyID, attemptID string, score float64) error
	Top(ctx context.Context, surveyID string, limit int) ([]ScoreboardEntry, error)
	Rank(ctx context.Context, surveyID, attemptID string) (int64, error)
	Clear(ctx context.Context, surveyID string) error
}

// ScoreboardEntry is a single ranked attempt
type ScoreboardEntry struct {
	AttemptID string  `json:"attempt_id"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

type scoreboardCache struct {
	client *redis.Client
}

// NewScoreboardCache creates a new scoreboard cache
func NewScoreboardCache(client *redis.Client) ScoreboardCache {
	return &scoreboardCache{
		client: client,
	}
}

func scoreboardKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:scoreboard", surveyID)
}

func (c *scoreboardCache) Record(ctx context.Context, surveyID, attemptID string, score float64) error {
	return c.client.ZAdd(ctx, scoreboardKey(surveyID), redis.Z{
		Score:  score,
		Member: attemptID,
	}).Err()
}

func (c *scoreboardCache) Top(ctx context.Context, surveyID string, limit int) ([]ScoreboardEntry, error) {
	if limit <= 0 {
		return []ScoreboardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, scoreboardKey(surveyID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	return toEntries(results), nil
}

func toEntries(results []redis.Z) []ScoreboardEntry {
	entries := make([]ScoreboardEntry, 0, len(results))
	for i, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, ScoreboardEntry{
			AttemptID: member,
			Score:     z.Score,
			Rank:      i + 1,
		})
	}
	return entries
}

// Rank is 1-indexed; -1 means the attempt is not on the board
func (c *scoreboardCache) Rank(ctx context.Context, surveyID, attemptID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, scoreboardKey(surveyID), attemptID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return rank + 1, nil
}

func (c *scoreboardCache) Clear(ctx context.Context, surveyID string) error {
	return c.client.Del(ctx, scoreboardKey(surveyID)).Err()
}
