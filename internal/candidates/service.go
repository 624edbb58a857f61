package candidates

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PasswordHasher abstracts digest creation and strength checking so this
// module does not depend on the auth package.
type PasswordHasher interface {
	HashPassword(plaintext string) (string, error)
	CheckStrength(plaintext string) error
}

// Service handles candidate administration logic.
type Service struct {
	repo     RepositoryPort
	hasher   PasswordHasher
	validate *validator.Validate
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher, validate: validator.New()}
}

// List returns all candidates for the administrative listing.
func (s *Service) List(ctx context.Context) ([]Candidate, error) {
	return s.repo.List(ctx)
}

// Update validates and applies a profile change. An empty Senha leaves the
// password untouched; a non-empty one must pass the strength rules.
func (s *Service) Update(ctx context.Context, input UpdateInput) error {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return ErrNomeObrigatorio
	}
	email := strings.TrimSpace(input.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ErrEmailInvalido
	}
	nascimento, err := ParseNascimento(input.Nascimento)
	if err != nil {
		return ErrDataInvalida
	}
	telefone := NormalizeTelefone(input.Telefone)

	if senha := strings.TrimSpace(input.Senha); senha != "" {
		if err := s.hasher.CheckStrength(senha); err != nil {
			return &SenhaFracaError{Reason: err.Error()}
		}
		hash, err := s.hasher.HashPassword(senha)
		if err != nil {
			return err
		}
		return s.repo.UpdateWithPassword(ctx, input.ID, nome, email, telefone, nascimento, hash)
	}
	return s.repo.Update(ctx, input.ID, nome, email, telefone, nascimento)
}

// Deactivate soft-deletes a candidate. Actors cannot deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrAutoExclusao
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

// VerificarIdade reports the age for a raw birth-date input and whether it
// meets the minimum.
func (s *Service) VerificarIdade(raw string, agora time.Time) (int, bool, error) {
	nascimento, err := ParseNascimento(raw)
	if err != nil {
		return 0, false, ErrDataInvalida
	}
	idade := Idade(nascimento, agora)
	return idade, idade >= IdadeMinima, nil
}
