package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rumo-app/rumo/internal/candidates"
	"github.com/rumo-app/rumo/internal/shared"
)

// Mailer delivers password-reset messages. The production implementation
// enqueues a background job; tests plug in a recorder.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Service wraps authentication business rules: credential verification,
// lockout transitions, registration and the password-reset flow.
type Service struct {
	repo     Repository
	policy   LockoutPolicy
	security *shared.SecurityLog
	mailer   Mailer
	validate *validator.Validate
	resetTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, policy LockoutPolicy, security *shared.SecurityLog, mailer Mailer, resetTTL time.Duration) *Service {
	if policy.Threshold == 0 {
		policy = DefaultLockoutPolicy()
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Service{
		repo:     repo,
		policy:   policy,
		security: security,
		mailer:   mailer,
		validate: validator.New(),
		resetTTL: resetTTL,
	}
}

// Authenticate validates email/password credentials and applies the lockout
// transitions. The read-check-write runs inside one row-locked transaction so
// two concurrent failures cannot both slip under the threshold. The origin is
// the client network address, used for security logging only.
func (s *Service) Authenticate(ctx context.Context, email, password, origin string) (*Candidate, error) {
	var (
		cand    *Candidate
		outcome error
		event   string
	)
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		c, err := tx.FindByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				outcome = ErrAccountNotFound
				return nil
			}
			return err
		}

		now := time.Now()
		if locked, minutes := s.policy.Locked(c.LockedUntil, now); locked {
			outcome = &LockedError{Minutes: minutes}
			event = shared.EventLoginLocked
			return nil
		}

		if !VerifyPassword(password, c.PasswordHash) {
			failed, until := s.policy.RegisterFailure(c.FailedAttempts, now)
			if err := tx.UpdateLockoutState(ctx, c.ID, failed, until); err != nil {
				return err
			}
			if until != nil {
				outcome = &LockedError{Minutes: int(until.Sub(now).Minutes())}
				event = shared.EventLockoutTriggered
			} else {
				outcome = shared.ErrInvalidCredentials
				event = shared.EventLoginFailed
			}
			return nil
		}

		// Success is only reachable from the OPEN state; reset the counter
		// and stamp the login in the same transaction.
		if err := tx.ClearLockoutState(ctx, c.ID, now); err != nil {
			return err
		}
		c.FailedAttempts = 0
		c.LockedUntil = nil
		c.UltimoLogin = &now
		cand = c
		return nil
	})
	if err != nil {
		return nil, shared.WithKind(shared.KindPersistence, err)
	}
	if outcome != nil {
		if event != "" && s.security != nil {
			_ = s.security.Record(ctx, shared.SecurityEvent{Kind: event, Subject: strings.ToLower(strings.TrimSpace(email)), Origin: origin})
		}
		return nil, shared.WithKind(shared.KindAuthentication, outcome)
	}
	return cand, nil
}

// Register creates a new candidate record and returns it. Field checks run in
// a fixed order so failure messages are deterministic.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Candidate, error) {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return nil, shared.WithKind(shared.KindValidation, &InvalidProfileError{Field: "nome", Reason: "informe seu nome"})
	}
	email := strings.TrimSpace(input.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, shared.WithKind(shared.KindValidation, &InvalidProfileError{Field: "email", Reason: "formato de email inválido"})
	}
	nascimento, err := candidates.ParseNascimento(input.Nascimento)
	if err != nil {
		return nil, shared.WithKind(shared.KindValidation, &InvalidProfileError{Field: "data_nascimento", Reason: "data de nascimento inválida, use DD/MM/AAAA"})
	}
	if idade := candidates.Idade(nascimento, time.Now()); idade < candidates.IdadeMinima {
		return nil, shared.WithKind(shared.KindValidation, &InvalidProfileError{Field: "data_nascimento", Reason: "idade insuficiente: " + strconv.Itoa(idade) + " anos (mínimo: " + strconv.Itoa(candidates.IdadeMinima) + ")"})
	}
	if input.Senha != input.ConfirmarSenha {
		return nil, shared.WithKind(shared.KindValidation, &InvalidProfileError{Field: "senha", Reason: "as senhas não coincidem"})
	}
	if err := CheckPasswordStrength(input.Senha); err != nil {
		return nil, shared.WithKind(shared.KindValidation, err)
	}

	hash, err := HashPassword(input.Senha)
	if err != nil {
		return nil, shared.WithKind(shared.KindPersistence, err)
	}
	cand := &Candidate{
		Nome:         nome,
		Email:        strings.ToLower(email),
		Telefone:     candidates.NormalizeTelefone(input.Telefone),
		Nascimento:   nascimento,
		PasswordHash: hash,
		Ativo:        true,
	}
	id, err := s.repo.CreateCandidate(ctx, cand)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, shared.WithKind(shared.KindValidation, ErrEmailTaken)
		}
		return nil, shared.WithKind(shared.KindPersistence, err)
	}
	cand.ID = id
	return cand, nil
}

// RequestPasswordReset mints and mails a single-use token when the email
// belongs to an active account. Callers must present the same outcome either
// way; only the mailing can fail loudly, and only after the token row is
// already committed.
func (s *Service) RequestPasswordReset(ctx context.Context, email, origin string) error {
	cand, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return shared.WithKind(shared.KindPersistence, err)
	}

	token, err := generateResetToken()
	if err != nil {
		return shared.WithKind(shared.KindPersistence, err)
	}
	expiresAt := time.Now().Add(s.resetTTL)
	if err := s.repo.InsertResetToken(ctx, cand.ID, token, expiresAt); err != nil {
		return shared.WithKind(shared.KindPersistence, err)
	}
	if s.security != nil {
		_ = s.security.Record(ctx, shared.SecurityEvent{Kind: shared.EventResetIssued, Subject: cand.Email, Origin: origin})
	}
	if s.mailer != nil {
		return s.mailer.SendPasswordReset(ctx, cand.Email, token)
	}
	return nil
}

// RedeemPasswordReset replaces the password for a redeemable token. Lookup,
// password update and token burn happen in one transaction, so a token can
// only ever be redeemed once. Every non-redeemable token yields
// ErrResetInvalid.
func (s *Service) RedeemPasswordReset(ctx context.Context, token, newPassword, origin string) error {
	if err := CheckPasswordStrength(newPassword); err != nil {
		return shared.WithKind(shared.KindValidation, err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return shared.WithKind(shared.KindPersistence, err)
	}

	var (
		outcome error
		subject string
	)
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		rt, err := tx.FindValidResetToken(ctx, token, time.Now())
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				outcome = ErrResetInvalid
				return nil
			}
			return err
		}
		if err := tx.UpdatePassword(ctx, rt.CandidateID, hash); err != nil {
			return err
		}
		// A fresh password also clears any standing lockout.
		if err := tx.UpdateLockoutState(ctx, rt.CandidateID, 0, nil); err != nil {
			return err
		}
		if err := tx.MarkResetTokenUsed(ctx, rt.ID); err != nil {
			return err
		}
		subject = strconv.FormatInt(rt.CandidateID, 10)
		return nil
	})
	if err != nil {
		return shared.WithKind(shared.KindPersistence, err)
	}
	if outcome != nil {
		return shared.WithKind(shared.KindValidation, outcome)
	}
	if s.security != nil {
		_ = s.security.Record(ctx, shared.SecurityEvent{Kind: shared.EventResetRedeemed, Subject: subject, Origin: origin})
	}
	return nil
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
