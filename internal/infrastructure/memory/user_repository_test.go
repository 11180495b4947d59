package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

func user(id, email, nickname string) *entity.User {
	return &entity.User{ID: id, Email: email, Nickname: nickname, Role: entity.RoleAnonymous}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))

	got, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "john_doe", got.Nickname)
	assert.False(t, got.CreatedAt.IsZero())

	got.Nickname = "mutated"
	again, _ := repo.GetByID(ctx, "1")
	assert.Equal(t, "john_doe", again.Nickname, "stored user must not alias returned copies")

	byEmail, err := repo.GetByEmail(ctx, "JOHN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))

	err := repo.Create(ctx, user("2", "John@Example.com", "other_nick"))
	assert.True(t, errors.Is(err, repository.ErrDuplicateEmail))

	err = repo.Create(ctx, user("3", "jane@example.com", "JOHN_DOE"))
	assert.True(t, errors.Is(err, repository.ErrDuplicateNickname))

	require.NoError(t, repo.Create(ctx, user("4", "jane@example.com", "jane_doe")))
	upd := user("4", "jane@example.com", "john_doe")
	assert.True(t, errors.Is(repo.Update(ctx, upd), repository.ErrDuplicateNickname))

	ok, err := repo.ExistsByNickname(ctx, "Jane_Doe")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, user(fmt.Sprint(i), "race@example.com", fmt.Sprintf("nick_%03d", i)))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	n, _ := repo.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestUserRepository_UpdatePreservesLockoutFields(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))
	_, err := repo.RecordLoginFailure(ctx, "1", 3)
	require.NoError(t, err)

	u, _ := repo.GetByID(ctx, "1")
	require.NoError(t, repo.SetVerified(ctx, "1", entity.RoleAuthenticated))
	u.FailedLoginAttempt = 0
	u.Role = entity.RoleAdmin
	u.Bio = "hello"
	require.NoError(t, repo.Update(ctx, u))

	got, _ := repo.GetByID(ctx, "1")
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, 1, got.FailedLoginAttempt)
	assert.True(t, got.EmailVerified, "a stale snapshot must not undo verification")
	assert.Equal(t, entity.RoleAuthenticated, got.Role)

	assert.True(t, errors.Is(repo.Update(ctx, user("x", "x@example.com", "xxxxxx")), repository.ErrNotFound))
}

func TestUserRepository_Lockout(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))

	for i := 1; i <= 2; i++ {
		s, err := repo.RecordLoginFailure(ctx, "1", 3)
		require.NoError(t, err)
		assert.Equal(t, entity.LockoutState{FailedAttempts: i}, s)
	}
	s, err := repo.RecordLoginFailure(ctx, "1", 3)
	require.NoError(t, err)
	assert.Equal(t, entity.LockoutState{FailedAttempts: 3, IsLocked: true}, s)

	require.NoError(t, repo.Unlock(ctx, "1"))
	u, _ := repo.GetByID(ctx, "1")
	assert.Equal(t, entity.LockoutState{}, u.Lockout())

	_, _ = repo.RecordLoginFailure(ctx, "1", 3)
	require.NoError(t, repo.RecordLoginSuccess(ctx, "1"))
	u, _ = repo.GetByID(ctx, "1")
	assert.Equal(t, 0, u.FailedLoginAttempt)
	assert.NotNil(t, u.LastLoginAt)

	_, err = repo.RecordLoginFailure(ctx, "missing", 3)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUserRepository_SetVerified(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))

	require.NoError(t, repo.SetVerified(ctx, "1", entity.RoleAuthenticated))
	u, _ := repo.GetByID(ctx, "1")
	assert.True(t, u.EmailVerified)
	assert.Equal(t, entity.RoleAuthenticated, u.Role)
}

func TestUserRepository_SetRole(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, user("1", "john@example.com", "john_doe")))

	require.NoError(t, repo.SetRole(ctx, "1", entity.RoleManager))
	u, _ := repo.GetByID(ctx, "1")
	assert.Equal(t, entity.RoleManager, u.Role)

	assert.True(t, errors.Is(repo.SetRole(ctx, "missing", entity.RoleAdmin), repository.ErrNotFound))
}

func TestUserRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	for i := range 5 {
		require.NoError(t, repo.Create(ctx, user(fmt.Sprint(i), fmt.Sprintf("u%d@example.com", i), fmt.Sprintf("nick_%03d", i))))
	}

	page, total, err := repo.List(ctx, repository.ListOptions{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "2", page[0].ID)
	assert.Equal(t, "3", page[1].ID)

	page, _, _ = repo.List(ctx, repository.ListOptions{Offset: 10, Limit: 2})
	assert.Empty(t, page)

	require.NoError(t, repo.Delete(ctx, "2"))
	assert.True(t, errors.Is(repo.Delete(ctx, "2"), repository.ErrNotFound))
	n, _ := repo.Count(ctx)
	assert.Equal(t, 4, n)
}
