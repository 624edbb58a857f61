package candidates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	candidates map[int64]*Candidate

	updatedID       int64
	updatedHash     string
	deactivatedID   int64
	updateCalls     int
	updateWithHash  int
	deactivateCalls int
}

func newStubRepo(cands ...*Candidate) *stubRepo {
	repo := &stubRepo{candidates: make(map[int64]*Candidate)}
	for _, c := range cands {
		repo.candidates[c.ID] = c
	}
	return repo
}

func (s *stubRepo) List(ctx context.Context) ([]Candidate, error) {
	out := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubRepo) Get(ctx context.Context, id int64) (*Candidate, error) {
	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNaoEncontrado
	}
	return c, nil
}

func (s *stubRepo) Update(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time) error {
	if _, ok := s.candidates[id]; !ok {
		return ErrNaoEncontrado
	}
	s.updatedID = id
	s.updateCalls++
	return nil
}

func (s *stubRepo) UpdateWithPassword(ctx context.Context, id int64, nome, email, telefone string, nascimento time.Time, passwordHash string) error {
	if _, ok := s.candidates[id]; !ok {
		return ErrNaoEncontrado
	}
	s.updatedID = id
	s.updatedHash = passwordHash
	s.updateWithHash++
	return nil
}

func (s *stubRepo) Deactivate(ctx context.Context, id int64) error {
	if _, ok := s.candidates[id]; !ok {
		return ErrNaoEncontrado
	}
	s.deactivatedID = id
	s.deactivateCalls++
	return nil
}

type stubHasher struct {
	weakReason string
}

func (h stubHasher) HashPassword(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (h stubHasher) CheckStrength(plaintext string) error {
	if h.weakReason != "" {
		return errors.New(h.weakReason)
	}
	return nil
}

func validInput() UpdateInput {
	return UpdateInput{
		ID:         1,
		Nome:       "Maria Silva",
		Email:      "maria@test.local",
		Telefone:   "(11) 91234-5678",
		Nascimento: "25/12/2005",
	}
}

func TestUpdateValidation(t *testing.T) {
	repo := newStubRepo(&Candidate{ID: 1})
	svc := NewService(repo, stubHasher{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*UpdateInput)
		want   error
	}{
		{"empty name", func(in *UpdateInput) { in.Nome = "  " }, ErrNomeObrigatorio},
		{"bad email", func(in *UpdateInput) { in.Email = "nope" }, ErrEmailInvalido},
		{"bad date", func(in *UpdateInput) { in.Nascimento = "99/99/9999" }, ErrDataInvalida},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			require.ErrorIs(t, svc.Update(ctx, input), tc.want)
		})
	}
}

func TestUpdateWithoutPasswordKeepsDigest(t *testing.T) {
	repo := newStubRepo(&Candidate{ID: 1})
	svc := NewService(repo, stubHasher{})

	require.NoError(t, svc.Update(context.Background(), validInput()))
	require.Equal(t, 1, repo.updateCalls)
	require.Zero(t, repo.updateWithHash)
}

func TestUpdateWithPasswordReplacesDigest(t *testing.T) {
	repo := newStubRepo(&Candidate{ID: 1})
	svc := NewService(repo, stubHasher{})

	input := validInput()
	input.Senha = "NovaSenha1!"
	require.NoError(t, svc.Update(context.Background(), input))
	require.Equal(t, 1, repo.updateWithHash)
	require.Equal(t, "hashed:NovaSenha1!", repo.updatedHash)
}

func TestUpdateWeakPassword(t *testing.T) {
	repo := newStubRepo(&Candidate{ID: 1})
	svc := NewService(repo, stubHasher{weakReason: "a senha deve conter um número"})

	input := validInput()
	input.Senha = "fraca"
	err := svc.Update(context.Background(), input)
	var weak *SenhaFracaError
	require.ErrorAs(t, err, &weak)
	require.Equal(t, "a senha deve conter um número", weak.Reason)
	require.Zero(t, repo.updateCalls, "weak password must not touch the repository")
	require.Zero(t, repo.updateWithHash)
}

func TestDeactivateSelf(t *testing.T) {
	repo := newStubRepo(&Candidate{ID: 1}, &Candidate{ID: 2})
	svc := NewService(repo, stubHasher{})

	require.ErrorIs(t, svc.Deactivate(context.Background(), 1, 1), ErrAutoExclusao)
	require.Zero(t, repo.deactivateCalls, "self deactivation must not reach the repository")

	require.NoError(t, svc.Deactivate(context.Background(), 2, 1))
	require.Equal(t, int64(2), repo.deactivatedID)
}

func TestDeactivateMissing(t *testing.T) {
	svc := NewService(newStubRepo(), stubHasher{})
	require.ErrorIs(t, svc.Deactivate(context.Background(), 9, 1), ErrNaoEncontrado)
}

func TestVerificarIdade(t *testing.T) {
	svc := NewService(newStubRepo(), stubHasher{})
	agora := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	idade, ok, err := svc.VerificarIdade("15/06/2010", agora)
	require.NoError(t, err)
	require.Equal(t, 16, idade)
	require.True(t, ok)

	idade, ok, err = svc.VerificarIdade("15/06/2012", agora)
	require.NoError(t, err)
	require.Equal(t, 14, idade)
	require.False(t, ok)

	_, _, err = svc.VerificarIdade("amanhã", agora)
	require.ErrorIs(t, err, ErrDataInvalida)
}
