// Package memory provides an in-process user store for tests and local runs.
// Every write checks uniqueness and mutates under a single lock, so it gives
// the same atomicity guarantees as the PostgreSQL unique indexes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*entity.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func key(s string) string { return strings.ToLower(s) }

// conflictLocked reports a uniqueness violation against any user other than u.ID.
func (r *UserRepository) conflictLocked(u *entity.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if key(other.Email) == key(u.Email) {
			return repository.ErrDuplicateEmail
		}
		if key(other.Nickname) == key(u.Nickname) {
			return repository.ErrDuplicateNickname
		}
	}
	return nil
}

func notFound(id string) error {
	return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(repository.ErrNotFound)
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflictLocked(u); err != nil {
		return oops.Code("USER_DUPLICATE").With("email", u.Email).With("nickname", u.Nickname).Wrap(err)
	}
	now := r.now()
	// Creation order drives List ordering; keep timestamps strictly increasing.
	for _, other := range r.users {
		if !now.After(other.CreatedAt) {
			now = other.CreatedAt.Add(time.Microsecond)
		}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = u.Clone()
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, notFound(id)
	}
	return u.Clone(), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if key(u.Email) == key(email) {
			return u.Clone(), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(repository.ErrNotFound)
}

func (r *UserRepository) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if key(u.Nickname) == key(nickname) {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok {
		return notFound(u.ID)
	}
	if err := r.conflictLocked(u); err != nil {
		return oops.Code("USER_DUPLICATE").With("id", u.ID).Wrap(err)
	}
	u.UpdatedAt = r.now()
	next := u.Clone()
	// Role, verification, lockout and timestamps are owned by the dedicated methods.
	next.Role = cur.Role
	next.EmailVerified = cur.EmailVerified
	next.FailedLoginAttempt = cur.FailedLoginAttempt
	next.IsLocked = cur.IsLocked
	next.LastLoginAt = cur.LastLoginAt
	next.CreatedAt = cur.CreatedAt
	r.users[u.ID] = next
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return notFound(id)
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) List(_ context.Context, opts repository.ListOptions) ([]*entity.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	out := make([]*entity.User, 0, end-start)
	for _, u := range all[start:end] {
		out = append(out, u.Clone())
	}
	return out, total, nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *UserRepository) RecordLoginFailure(_ context.Context, id string, threshold int) (entity.LockoutState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return entity.LockoutState{}, notFound(id)
	}
	u.FailedLoginAttempt++
	u.IsLocked = u.IsLocked || u.FailedLoginAttempt >= threshold
	u.UpdatedAt = r.now()
	return u.Lockout(), nil
}

func (r *UserRepository) RecordLoginSuccess(_ context.Context, id string) error {
	return r.mutate(id, func(u *entity.User, now time.Time) {
		u.FailedLoginAttempt = 0
		u.LastLoginAt = &now
	})
}

func (r *UserRepository) Unlock(_ context.Context, id string) error {
	return r.mutate(id, func(u *entity.User, _ time.Time) {
		u.FailedLoginAttempt = 0
		u.IsLocked = false
	})
}

func (r *UserRepository) SetVerified(_ context.Context, id string, role entity.Role) error {
	return r.mutate(id, func(u *entity.User, _ time.Time) {
		u.EmailVerified = true
		u.Role = role
	})
}

func (r *UserRepository) SetRole(_ context.Context, id string, role entity.Role) error {
	return r.mutate(id, func(u *entity.User, _ time.Time) { u.Role = role })
}

func (r *UserRepository) mutate(id string, fn func(u *entity.User, now time.Time)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return notFound(id)
	}
	now := r.now()
	fn(u, now)
	u.UpdatedAt = now
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
