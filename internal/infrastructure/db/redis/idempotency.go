package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which user a POST /users Idempotency-Key
// produced. Key format: idem:users:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl falls back to 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the user id recorded for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q: %w", val, err)
	}
	return id, true, nil
}

// Remember records userID under key. An existing record is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, key string, userID int64) error {
	if err := s.client.SetNX(ctx, s.key(key), strconv.FormatInt(userID, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(k string) string {
	return "idem:users:" + k
}
