package auth

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor. 12 is the floor for new digests; older
// digests verify at whatever cost they were produced with.
const hashCost = 12

// HashPassword produces a salted bcrypt digest. Two calls on the same input
// yield different digests.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plaintext matches the stored digest. A
// malformed digest verifies as false, never as an error.
func VerifyPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// CheckPasswordStrength evaluates the strength rules in a fixed order so the
// reported reason is deterministic: length, uppercase, lowercase, digit,
// symbol.
func CheckPasswordStrength(plaintext string) error {
	// Characters, not bytes: accented runes count once.
	if utf8.RuneCountInString(plaintext) < 8 {
		return &WeakPasswordError{Reason: "a senha deve ter no mínimo 8 caracteres"}
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	switch {
	case !hasUpper:
		return &WeakPasswordError{Reason: "a senha deve conter uma letra maiúscula"}
	case !hasLower:
		return &WeakPasswordError{Reason: "a senha deve conter uma letra minúscula"}
	case !hasDigit:
		return &WeakPasswordError{Reason: "a senha deve conter um número"}
	case !hasSymbol:
		return &WeakPasswordError{Reason: "a senha deve conter um símbolo"}
	}
	return nil
}
