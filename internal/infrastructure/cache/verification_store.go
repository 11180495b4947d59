// Package cache holds the Redis-backed stores.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/pkg/helpers"
)

const verifyKeyPrefix = "email:verify:token:"

// consumeScript deletes the token only when it matches, in one round trip.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// VerificationStore keeps one outstanding verification token per user.
// Issuing a new token replaces the previous one.
type VerificationStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewVerificationStore(rdb redis.UniversalClient, ttl time.Duration) *VerificationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VerificationStore{rdb: rdb, ttl: ttl}
}

func verifyKey(userID string) string { return verifyKeyPrefix + userID }

func (s *VerificationStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := helpers.RandomToken(32)
	if err != nil {
		return "", oops.Code("VERIFY_TOKEN_GENERATE_FAILED").With("user_id", userID).Wrap(err)
	}
	if err := s.rdb.Set(ctx, verifyKey(userID), token, s.ttl).Err(); err != nil {
		return "", oops.Code("VERIFY_TOKEN_STORE_FAILED").With("user_id", userID).Wrap(err)
	}
	return token, nil
}

func (s *VerificationStore) Consume(ctx context.Context, userID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := consumeScript.Run(ctx, s.rdb, []string{verifyKey(userID)}, token).Int()
	if err != nil {
		return false, oops.Code("VERIFY_TOKEN_CONSUME_FAILED").With("user_id", userID).Wrap(err)
	}
	return n == 1, nil
}
