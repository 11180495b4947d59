package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

// UserIndex is a substring-matching stand-in for the Elasticsearch index.
type UserIndex struct {
	mu   sync.RWMutex
	docs map[string]*entity.User
}

func NewUserIndex() *UserIndex {
	return &UserIndex{docs: make(map[string]*entity.User)}
}

func (x *UserIndex) Index(_ context.Context, u *entity.User) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[u.ID] = u.Clone()
	return nil
}

func (x *UserIndex) Remove(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

// Search ranks nickname matches above email matches above name or bio matches.
func (x *UserIndex) Search(_ context.Context, q string, size int) ([]string, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	x.mu.RLock()
	defer x.mu.RUnlock()

	type hit struct {
		id    string
		score int
	}
	var hits []hit
	for id, u := range x.docs {
		score := 0
		if strings.Contains(strings.ToLower(u.Nickname), q) {
			score += 3
		}
		if strings.Contains(strings.ToLower(u.Email), q) {
			score += 2
		}
		for _, f := range []string{u.FirstName, u.LastName, u.Bio} {
			if strings.Contains(strings.ToLower(f), q) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{id: id, score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].id < hits[j].id
		}
		return hits[i].score > hits[j].score
	})

	out := make([]string, 0, min(len(hits), size))
	for _, h := range hits {
		if len(out) == size {
			break
		}
		out = append(out, h.id)
	}
	return out, nil
}
