package candidates

import (
	"errors"
	"time"
)

// Candidate is the administrative view of a registrant.
type Candidate struct {
	ID           int64
	Nome         string
	Email        string
	Telefone     string
	Nascimento   time.Time
	CadastradoEm time.Time
	UltimoLogin  *time.Time
	Ativo        bool
}

// UpdateInput carries the editable profile fields. Senha is optional; when
// present the password is replaced.
type UpdateInput struct {
	ID         int64
	Nome       string
	Email      string
	Telefone   string
	Nascimento string
	Senha      string
}

var (
	// ErrNaoEncontrado indicates the candidate does not exist.
	ErrNaoEncontrado = errors.New("candidato não encontrado")
	// ErrNomeObrigatorio indicates an empty name field.
	ErrNomeObrigatorio = errors.New("informe o nome")
	// ErrEmailInvalido indicates a malformed email field.
	ErrEmailInvalido = errors.New("formato de email inválido")
	// ErrDataInvalida indicates an unparseable birth date.
	ErrDataInvalida = errors.New("data de nascimento inválida, use DD/MM/AAAA")
	// ErrEmailEmUso indicates the new email collides with another record.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrAutoExclusao indicates an attempt to deactivate one's own account.
	ErrAutoExclusao = errors.New("não é possível excluir o próprio usuário")
)

// SenhaFracaError carries the strength rule a replacement password failed.
type SenhaFracaError struct {
	Reason string
}

func (e *SenhaFracaError) Error() string { return e.Reason }
