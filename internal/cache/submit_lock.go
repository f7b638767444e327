package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmitLock serialises submissions of the same attempt across instances
type SubmitLock interface {
	// Acquire returns a release func when the lock was taken, or ok=false when
	// another submission holds it.
	Acquire(ctx context.Context, attemptID string) (release func(), ok bool, err error)
}

type submitLock struct {
	client *redis.Client
	ttl    time.Duration
}

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NewSubmitLock creates a submit lock whose entries expire after ttl
func NewSubmitLock(client *redis.Client, ttl time.Duration) SubmitLock {
	return &submitLock{
		client: client,
		ttl:    ttl,
	}
}

func lockKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:submit", attemptID)
}

func (l *submitLock) Acquire(ctx context.Context, attemptID string) (func(), bool, error) {
	token := uuid.NewString()
	key := lockKey(attemptID)

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// the request context may already be cancelled here
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}
	return release, true, nil
}
