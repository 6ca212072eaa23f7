package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const slotKeyPrefix = "reservation:slot:"

// releaseScript deletes the hold only when the caller still owns it,
// so a late release cannot evict someone else's newer hold.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// redisStore backs holds with redis. SET NX gives the single-winner
// guarantee across nodes, and key TTLs are the active sweep.
type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Acquire(ctx context.Context, slotID uuid.UUID, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, slotKeyPrefix+slotID.String(), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot hold: %w", err)
	}
	return ok, nil
}

func (s *redisStore) Release(ctx context.Context, slotID uuid.UUID, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{slotKeyPrefix + slotID.String()}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release slot hold: %w", err)
	}
	return nil
}

func (s *redisStore) Holder(ctx context.Context, slotID uuid.UUID) (string, bool, error) {
	token, err := s.client.Get(ctx, slotKeyPrefix+slotID.String()).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot hold: %w", err)
	}
	return token, true, nil
}
