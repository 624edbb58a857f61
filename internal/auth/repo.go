package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rumo-app/rumo/internal/shared"
)

const pgUniqueViolation = "23505"

// Repository defines persistence operations for the auth module. Everything
// that mutates lockout counters or reset tokens runs inside WithTx so a login
// attempt or token redemption is one atomic unit.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Candidate, error)
	CreateCandidate(ctx context.Context, c *Candidate) (int64, error)
	InsertResetToken(ctx context.Context, candidateID int64, token string, expiresAt time.Time) error
	WithTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository exposes the row-locked operations available inside a
// transaction.
type TxRepository interface {
	FindByEmailForUpdate(ctx context.Context, email string) (*Candidate, error)
	UpdateLockoutState(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error
	ClearLockoutState(ctx context.Context, id int64, loginAt time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	FindValidResetToken(ctx context.Context, token string, now time.Time) (*ResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenID int64) error
}

// ResetToken is one row of password_resets.
type ResetToken struct {
	ID          int64
	CandidateID int64
	Token       string
	ExpiresAt   time.Time
	Used        bool
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const candidateColumns = `id_candidato, nome_candidato, email_candidato, COALESCE(telefone_candidato, ''), data_nascimento_c, senha_hash, failed_attempts, locked_until, ultimo_login, ativo, data_cadastro`

func scanCandidate(row pgx.Row) (*Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.Nome, &c.Email, &c.Telefone, &c.Nascimento, &c.PasswordHash, &c.FailedAttempts, &c.LockedUntil, &c.UltimoLogin, &c.Ativo, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByEmail fetches an active candidate by email, case-insensitively.
// Deactivated records never authenticate.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Candidate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidato WHERE lower(email_candidato) = lower($1) AND ativo`, strings.TrimSpace(email))
	return scanCandidate(row)
}

// CreateCandidate inserts a new credential record. A duplicate email maps to
// ErrEmailTaken via the unique constraint.
func (r *PGRepository) CreateCandidate(ctx context.Context, c *Candidate) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO candidato (nome_candidato, email_candidato, telefone_candidato, data_nascimento_c, senha_hash, data_cadastro)
		VALUES ($1, lower($2), $3, $4, $5, NOW())
		RETURNING id_candidato
	`, c.Nome, c.Email, c.Telefone, c.Nascimento, c.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

// InsertResetToken persists a freshly minted reset token.
func (r *PGRepository) InsertResetToken(ctx context.Context, candidateID int64, token string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_resets (id_candidato, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, NOW())
	`, candidateID, token, expiresAt.UTC())
	return err
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (r *PGRepository) WithTx(ctx context.Context, fn func(tx TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(&txRepository{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

// FindByEmailForUpdate locks the candidate row for the rest of the
// transaction so concurrent attempts serialize on the same record.
func (t *txRepository) FindByEmailForUpdate(ctx context.Context, email string) (*Candidate, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidato WHERE lower(email_candidato) = lower($1) AND ativo FOR UPDATE`, strings.TrimSpace(email))
	return scanCandidate(row)
}

// UpdateLockoutState writes the failure counter and lockout expiry.
func (t *txRepository) UpdateLockoutState(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE candidato SET failed_attempts = $2, locked_until = $3 WHERE id_candidato = $1`, id, failedAttempts, lockedUntil)
	return err
}

// ClearLockoutState resets the counters and stamps the login time in one
// statement.
func (t *txRepository) ClearLockoutState(ctx context.Context, id int64, loginAt time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE candidato SET failed_attempts = 0, locked_until = NULL, ultimo_login = $2 WHERE id_candidato = $1`, id, loginAt.UTC())
	return err
}

// UpdatePassword replaces the stored digest.
func (t *txRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := t.tx.Exec(ctx, `UPDATE candidato SET senha_hash = $2 WHERE id_candidato = $1`, id, passwordHash)
	return err
}

// FindValidResetToken locks the token row when it is still redeemable:
// unused and unexpired. Used, expired and unknown tokens all come back as
// shared.ErrNotFound.
func (t *txRepository) FindValidResetToken(ctx context.Context, token string, now time.Time) (*ResetToken, error) {
	var rt ResetToken
	err := t.tx.QueryRow(ctx, `
		SELECT id, id_candidato, token, expires_at, used
		FROM password_resets
		WHERE token = $1 AND NOT used AND expires_at > $2
		FOR UPDATE
	`, token, now.UTC()).Scan(&rt.ID, &rt.CandidateID, &rt.Token, &rt.ExpiresAt, &rt.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// MarkResetTokenUsed burns the token.
func (t *txRepository) MarkResetTokenUsed(ctx context.Context, tokenID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE id = $1`, tokenID)
	return err
}

var _ Repository = (*PGRepository)(nil)
var _ TxRepository = (*txRepository)(nil)
