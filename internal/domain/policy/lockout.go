// Package policy holds the pure decision rules of the user domain: account
// lockout and role-based authorization.
package policy

import (
	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

// DefaultLockoutThreshold is the number of consecutive failures that locks an account.
const DefaultLockoutThreshold = 3

// Lockout is the account lockout state machine.
//
//	ACTIVE --failure--> ACTIVE (counter+1)
//	ACTIVE --failure at threshold--> LOCKED
//	ACTIVE --success--> ACTIVE (counter=0)
//	LOCKED --any login--> rejected, until Unlock
type Lockout struct {
	Threshold int
}

// NewLockout returns a policy with the given threshold, falling back to the default for values < 1.
func NewLockout(threshold int) Lockout {
	if threshold < 1 {
		threshold = DefaultLockoutThreshold
	}
	return Lockout{Threshold: threshold}
}

// Check rejects any login attempt against a locked account.
func (l Lockout) Check(s entity.LockoutState) error {
	if s.IsLocked {
		return apperror.ErrAccountLocked
	}
	return nil
}

// NextState returns the state after one more failure on top of failures.
func (l Lockout) NextState(failures int) entity.LockoutState {
	n := failures + 1
	return entity.LockoutState{FailedAttempts: n, IsLocked: n >= l.Threshold}
}

// Reset is the state after a successful login.
func (l Lockout) Reset() entity.LockoutState {
	return entity.LockoutState{}
}
