package auth

import "time"

// LockoutPolicy decides block/allow from the failure counter and timestamps.
// It is pure state-transition logic; persistence and serialization of the
// transitions belong to the caller.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy mirrors the hardened defaults: five failures lock the
// account for fifteen minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}
}

// Locked reports whether the record is currently locked and, if so, the
// remaining minutes rounded down.
func (p LockoutPolicy) Locked(lockedUntil *time.Time, now time.Time) (bool, int) {
	if lockedUntil == nil || !lockedUntil.After(now) {
		return false, 0
	}
	return true, int(lockedUntil.Sub(now).Minutes())
}

// RegisterFailure increments the counter and returns the new lockout expiry
// when the threshold is reached, nil otherwise.
func (p LockoutPolicy) RegisterFailure(failedAttempts int, now time.Time) (int, *time.Time) {
	failedAttempts++
	if failedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		return failedAttempts, &until
	}
	return failedAttempts, nil
}
