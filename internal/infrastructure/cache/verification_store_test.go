package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*VerificationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewVerificationStore(rdb, ttl), mr
}

func TestVerificationStore_IssueAndConsume(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t, time.Hour)

	token, err := s.Issue(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, mr.Exists("email:verify:token:user-1"))
	assert.Equal(t, time.Hour, mr.TTL("email:verify:token:user-1"))

	ok, err := s.Consume(ctx, "user-1", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("email:verify:token:user-1"), "a wrong guess must not burn the token")

	ok, err = s.Consume(ctx, "user-1", token)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "user-1", token)
	require.NoError(t, err)
	assert.False(t, ok, "tokens are single use")
}

func TestVerificationStore_ReissueReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, time.Hour)

	first, err := s.Issue(ctx, "user-1")
	require.NoError(t, err)
	second, err := s.Issue(ctx, "user-1")
	require.NoError(t, err)

	ok, _ := s.Consume(ctx, "user-1", first)
	assert.False(t, ok)
	ok, _ = s.Consume(ctx, "user-1", second)
	assert.True(t, ok)
}

func TestVerificationStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t, time.Minute)

	token, err := s.Issue(ctx, "user-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	ok, err := s.Consume(ctx, "user-1", token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationStore_RedisDown(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	mr.Close()

	_, err := s.Issue(context.Background(), "user-1")
	assert.Error(t, err)
}
