package candidates

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// IdadeMinima is the minimum registration age.
const IdadeMinima = 15

var brDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

var nonDigits = regexp.MustCompile(`\D`)

// ParseNascimento accepts a birth date as DD/MM/YYYY or YYYY-MM-DD.
func ParseNascimento(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("data de nascimento vazia")
	}
	if brDate.MatchString(s) {
		return time.Parse("02/01/2006", s)
	}
	return time.Parse("2006-01-02", s)
}

// Idade computes full years between nascimento and hoje.
func Idade(nascimento, hoje time.Time) int {
	anos := hoje.Year() - nascimento.Year()
	aniversario := time.Date(hoje.Year(), nascimento.Month(), nascimento.Day(), 0, 0, 0, 0, hoje.Location())
	if hoje.Before(aniversario) {
		anos--
	}
	return anos
}

// NormalizeTelefone strips everything but digits before storage.
func NormalizeTelefone(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// FormatTelefone renders a stored phone number for display:
// (xx) xxxxx-xxxx for mobile, (xx) xxxx-xxxx for landline, "-" when empty.
func FormatTelefone(s string) string {
	digits := NormalizeTelefone(s)
	switch len(digits) {
	case 0:
		return "-"
	case 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	case 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	}
	return s
}
