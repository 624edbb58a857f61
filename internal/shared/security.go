package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Security event kinds persisted to security_events.
const (
	EventLoginFailed      = "login_failed"
	EventLockoutTriggered = "lockout_triggered"
	EventLoginLocked      = "login_locked"
	EventCSRFMismatch     = "csrf_mismatch"
	EventResetIssued      = "reset_issued"
	EventResetRedeemed    = "reset_redeemed"
)

// SecurityEvent is one security-relevant occurrence tied to a subject and a
// client network origin.
type SecurityEvent struct {
	Kind    string
	Subject string
	Origin  string
	At      time.Time
}

// SecurityLog persists security events and mirrors them to the structured log.
type SecurityLog struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSecurityLog returns a new SecurityLog.
func NewSecurityLog(pool *pgxpool.Pool, logger *slog.Logger) *SecurityLog {
	return &SecurityLog{pool: pool, logger: logger}
}

// Record persists the event. Recording is best-effort with respect to the
// request that triggered it: a failed insert is logged, never propagated.
func (l *SecurityLog) Record(ctx context.Context, event SecurityEvent) error {
	if l == nil {
		return errors.New("security log not initialised")
	}
	if event.Kind == "" {
		return errors.New("security event requires kind")
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if l.logger != nil {
		l.logger.Warn("security event",
			slog.String("kind", event.Kind),
			slog.String("subject", event.Subject),
			slog.String("origin", event.Origin),
			slog.Time("at", event.At),
		)
	}
	if l.pool == nil {
		return nil
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO security_events (kind, subject, origin, occurred_at) VALUES ($1, $2, $3, $4)`, event.Kind, event.Subject, event.Origin, event.At)
	if err != nil && l.logger != nil {
		l.logger.Error("record security event", slog.Any("error", err))
	}
	return err
}
