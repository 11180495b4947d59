package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/oksasatya/go-user-management/pkg/helpers"
)

type verification struct {
	token   string
	expires time.Time
}

// VerificationStore is the in-process counterpart of the Redis store.
type VerificationStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]verification
	now    func() time.Time
}

func NewVerificationStore(ttl time.Duration) *VerificationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VerificationStore{ttl: ttl, tokens: make(map[string]verification), now: time.Now}
}

func (s *VerificationStore) Issue(_ context.Context, userID string) (string, error) {
	token, err := helpers.RandomToken(32)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = verification{token: token, expires: s.now().Add(s.ttl)}
	return token, nil
}

func (s *VerificationStore) Consume(_ context.Context, userID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tokens[userID]
	if !ok || token == "" || subtle.ConstantTimeCompare([]byte(v.token), []byte(token)) != 1 {
		return false, nil
	}
	delete(s.tokens, userID)
	return s.now().Before(v.expires), nil
}
