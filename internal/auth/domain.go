package auth

import (
	"errors"
	"fmt"
	"time"
)

// Candidate is the credential record behind every authentication decision.
// FailedAttempts and LockedUntil are written only by the lockout transition
// inside Service.Authenticate.
type Candidate struct {
	ID             int64
	Nome           string
	Email          string
	Telefone       string
	Nascimento     time.Time
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	UltimoLogin    *time.Time
	Ativo          bool
	CreatedAt      time.Time
}

var (
	// ErrAccountNotFound indicates no active credential record for the email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken indicates a registration collision on the email column.
	ErrEmailTaken = errors.New("email already registered")
	// ErrResetInvalid covers every non-redeemable reset token: unknown, already
	// used and expired are deliberately indistinguishable.
	ErrResetInvalid = errors.New("reset token invalid or expired")
)

// LockedError reports an authentication attempt against a locked account.
type LockedError struct {
	Minutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, %d minutes remaining", e.Minutes)
}

// WeakPasswordError carries the first strength rule the password failed.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + e.Reason
}

// InvalidProfileError reports a malformed registration field.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// RegisterInput carries the raw registration form fields.
type RegisterInput struct {
	Nome            string
	Email           string
	Telefone        string
	Nascimento      string
	Senha           string
	ConfirmarSenha  string
	ManterConectado bool
}
