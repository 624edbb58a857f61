package quiz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access for the question bank and results.
type RepositoryPort interface {
	ListActiveQuestions(ctx context.Context) ([]Question, error)
	InsertResult(ctx context.Context, result *Result) (int64, error)
	ListResultsByCandidate(ctx context.Context, candidatoID int64) ([]Result, error)
}

// PGRepository implements RepositoryPort using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// optionLetters maps answer position to the letter the front-end renders.
var optionLetters = []string{"A", "B", "C", "D", "E"}

// ListActiveQuestions loads the active questions with their options in one
// join, ordered the way the questionnaire presents them.
func (r *PGRepository) ListActiveQuestions(ctx context.Context) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.n_pergunta, q.descricao, resp.resposta_01,
		       COALESCE(resp.peso_informatica, 0), COALESCE(resp.peso_web, 0),
		       COALESCE(resp.peso_manutencao, 0), COALESCE(resp.peso_dados, 0)
		FROM questionario q
		JOIN respostas resp ON resp.n_pergunta = q.n_pergunta AND resp.ativo
		WHERE q.ativo
		ORDER BY q.ordem_exibicao, q.n_pergunta, resp.n_resposta
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var (
			numero    int
			descricao string
			opt       Option
		)
		if err := rows.Scan(&numero, &descricao, &opt.Text, &opt.Informatica, &opt.Web, &opt.Manutencao, &opt.Dados); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Numero != numero {
			out = append(out, Question{Numero: numero, Descricao: descricao})
		}
		q := &out[len(out)-1]
		if len(q.Opcoes) < len(optionLetters) {
			opt.ID = optionLetters[len(q.Opcoes)]
		}
		q.Opcoes = append(q.Opcoes, opt)
	}
	return out, rows.Err()
}

// InsertResult persists a questionnaire outcome.
func (r *PGRepository) InsertResult(ctx context.Context, result *Result) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO resultados_questionario
			(id_candidato, pontuacao_informatica, pontuacao_web, pontuacao_manutencao, pontuacao_dados, curso_recomendado, data_realizacao)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id_resultado
	`, result.CandidatoID, result.Scores.Informatica, result.Scores.Web, result.Scores.Manutencao, result.Scores.Dados, result.CursoRecomendado).Scan(&id)
	return id, err
}

// ListResultsByCandidate returns the candidate's past runs, newest first.
func (r *PGRepository) ListResultsByCandidate(ctx context.Context, candidatoID int64) ([]Result, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id_resultado, id_candidato, data_realizacao,
		       pontuacao_informatica, pontuacao_web, pontuacao_manutencao, pontuacao_dados, curso_recomendado
		FROM resultados_questionario
		WHERE id_candidato = $1
		ORDER BY data_realizacao DESC
	`, candidatoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.CandidatoID, &res.RealizadoEm, &res.Scores.Informatica, &res.Scores.Web, &res.Scores.Manutencao, &res.Scores.Dados, &res.CursoRecomendado); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*PGRepository)(nil)
