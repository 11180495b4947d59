package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewValidationError("nickname", "too short"), KindValidation},
		{"wrapped validation", fmt.Errorf("create: %w", NewValidationError("email", "bad")), KindValidation},
		{"conflict", ErrEmailExists, KindConflict},
		{"auth", ErrBadCredentials, KindAuthentication},
		{"locked", ErrAccountLocked, KindLocked},
		{"forbidden", ErrForbidden, KindAuthorization},
		{"not found", fmt.Errorf("get: %w", ErrUserNotFound), KindNotFound},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDetailOf(t *testing.T) {
	assert.Equal(t, MsgEmailExists, DetailOf(ErrEmailExists))
	assert.Equal(t, MsgAccountLocked, DetailOf(fmt.Errorf("login: %w", ErrAccountLocked)))
	assert.Equal(t, "Validation failed", DetailOf(NewValidationError("x", "y")))
	assert.Equal(t, "Internal server error", DetailOf(Internal(errors.New("db down"))))
	assert.Equal(t, "Internal server error", DetailOf(errors.New("db down")))
}

func TestErrorIs_MatchesByKindAndDetail(t *testing.T) {
	assert.True(t, errors.Is(Conflict(MsgEmailExists), ErrEmailExists))
	assert.False(t, errors.Is(ErrNicknameExists, ErrEmailExists))
}

func TestValidationError_MessageIsStable(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"nickname": "too short", "email": "invalid"}}
	assert.Equal(t, "validation failed: email: invalid; nickname: too short", err.Error())
}
