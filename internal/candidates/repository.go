package candidates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// RepositoryPort defines data access methods for candidate administration.
type RepositoryPort interface {
	List(ctx context.Context) ([]Candidate, error)
	Get(ctx context.Context, id int64) (*Candidate, error)
	Update(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time) error
	UpdateWithPassword(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time, passwordHash string) error
	Deactivate(ctx context.Context, id int64) error
}

// PGRepository implements RepositoryPort using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns every candidate, newest first, including deactivated records
// so the listing shows the full history.
func (r *PGRepository) List(ctx context.Context) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id_candidato, nome_candidato, email_candidato, COALESCE(telefone_candidato, ''), data_nascimento_c, data_cadastro, ultimo_login, ativo
		FROM candidato
		ORDER BY id_candidato DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Nome, &c.Email, &c.Telefone, &c.Nascimento, &c.CadastradoEm, &c.UltimoLogin, &c.Ativo); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get fetches a single candidate by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Candidate, error) {
	var c Candidate
	err := r.pool.QueryRow(ctx, `
		SELECT id_candidato, nome_candidato, email_candidato, COALESCE(telefone_candidato, ''), data_nascimento_c, data_cadastro, ultimo_login, ativo
		FROM candidato WHERE id_candidato = $1
	`, id).Scan(&c.ID, &c.Nome, &c.Email, &c.Telefone, &c.Nascimento, &c.CadastradoEm, &c.UltimoLogin, &c.Ativo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &c, nil
}

// Update rewrites the profile fields.
func (r *PGRepository) Update(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE candidato
		SET nome_candidato = $2, email_candidato = lower($3), telefone_candidato = $4, data_nascimento_c = $5
		WHERE id_candidato = $1
	`, id, nome, email, telefone, nascimento)
	return mapUpdateErr(tag, err)
}

// UpdateWithPassword rewrites the profile fields and replaces the digest.
func (r *PGRepository) UpdateWithPassword(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE candidato
		SET nome_candidato = $2, email_candidato = lower($3), telefone_candidato = $4, data_nascimento_c = $5, senha_hash = $6
		WHERE id_candidato = $1
	`, id, nome, email, telefone, nascimento, passwordHash)
	return mapUpdateErr(tag, err)
}

// Deactivate soft-deletes the record; it stays listed but can no longer
// authenticate.
func (r *PGRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE candidato SET ativo = FALSE WHERE id_candidato = $1`, id)
	return mapUpdateErr(tag, err)
}

func mapUpdateErr(tag pgconn.CommandTag, err error) error {
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailEmUso
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

var _ RepositoryPort = (*PGRepository)(nil)
