package auth

import (
	"testing"
	"time"
)

func TestLockedStates(t *testing.T) {
	policy := DefaultLockoutPolicy()
	now := time.Now()

	if locked, _ := policy.Locked(nil, now); locked {
		t.Fatalf("nil lockedUntil must be open")
	}

	past := now.Add(-time.Minute)
	if locked, _ := policy.Locked(&past, now); locked {
		t.Fatalf("past lockedUntil must be open")
	}

	future := now.Add(14*time.Minute + 30*time.Second)
	locked, minutes := policy.Locked(&future, now)
	if !locked {
		t.Fatalf("future lockedUntil must be locked")
	}
	if minutes != 14 {
		t.Fatalf("expected remaining minutes floored to 14, got %d", minutes)
	}
}

func TestRegisterFailureThreshold(t *testing.T) {
	policy := DefaultLockoutPolicy()
	now := time.Now()

	failed, until := policy.RegisterFailure(3, now)
	if failed != 4 || until != nil {
		t.Fatalf("fourth failure must not lock, got failed=%d until=%v", failed, until)
	}

	failed, until = policy.RegisterFailure(4, now)
	if failed != 5 {
		t.Fatalf("expected counter 5, got %d", failed)
	}
	if until == nil {
		t.Fatalf("fifth failure must lock")
	}
	if got := until.Sub(now); got != 15*time.Minute {
		t.Fatalf("expected 15m lock, got %v", got)
	}
}
