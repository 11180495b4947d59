package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/policy"
)

func TestLockout_NextState(t *testing.T) {
	l := policy.NewLockout(3)

	t.Run("failures below threshold stay active", func(t *testing.T) {
		s := l.NextState(0)
		assert.Equal(t, 1, s.FailedAttempts)
		assert.False(t, s.IsLocked)

		s = l.NextState(1)
		assert.Equal(t, 2, s.FailedAttempts)
		assert.False(t, s.IsLocked)
	})

	t.Run("reaching threshold locks", func(t *testing.T) {
		s := l.NextState(2)
		assert.Equal(t, 3, s.FailedAttempts)
		assert.True(t, s.IsLocked)
	})

	t.Run("past threshold stays locked", func(t *testing.T) {
		assert.True(t, l.NextState(10).IsLocked)
	})
}

func TestLockout_Check(t *testing.T) {
	l := policy.NewLockout(3)

	assert.NoError(t, l.Check(entity.LockoutState{FailedAttempts: 2}))

	err := l.Check(entity.LockoutState{FailedAttempts: 3, IsLocked: true})
	assert.True(t, errors.Is(err, apperror.ErrAccountLocked))
	assert.Equal(t, apperror.KindLocked, apperror.KindOf(err))
}

func TestLockout_Reset(t *testing.T) {
	assert.Equal(t, entity.LockoutState{}, policy.NewLockout(5).Reset())
}

func TestNewLockout_DefaultThreshold(t *testing.T) {
	assert.Equal(t, policy.DefaultLockoutThreshold, policy.NewLockout(0).Threshold)
	assert.Equal(t, policy.DefaultLockoutThreshold, policy.NewLockout(-4).Threshold)
	assert.Equal(t, 7, policy.NewLockout(7).Threshold)
}
