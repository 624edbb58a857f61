package shared

import "errors"

// ErrorKind classifies failures into the closed set the handlers know how to
// surface. Anything outside the set is treated as ErrPersistence.
type ErrorKind int

const (
	// KindValidation marks malformed input; surfaced with a specific reason.
	KindValidation ErrorKind = iota
	// KindAuthentication marks failed credential checks; surfaced vaguely.
	KindAuthentication
	// KindSecurity marks violations that terminate the session (CSRF).
	KindSecurity
	// KindPersistence marks store failures; logged in full, surfaced generically.
	KindPersistence
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// KindError attaches an ErrorKind to an underlying error.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string { return e.Err.Error() }

func (e *KindError) Unwrap() error { return e.Err }

// WithKind wraps err with an explicit kind.
func WithKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// KindOf reports the classification of err, defaulting to persistence for
// unclassified failures so they are never leaked verbatim to users.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return KindSecurity
	default:
		return KindPersistence
	}
}
