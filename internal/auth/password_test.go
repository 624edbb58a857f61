package auth

import (
	"errors"
	"testing"
)

func TestCheckPasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		reason   string
	}{
		{"too short", "Ab1!", "a senha deve ter no mínimo 8 caracteres"},
		{"too short with multibyte runes", "Aá1!áá", "a senha deve ter no mínimo 8 caracteres"},
		{"valid with multibyte runes", "Ábçdef1!", ""},
		{"missing uppercase", "abcdef1!", "a senha deve conter uma letra maiúscula"},
		{"missing lowercase", "ABCDEF1!", "a senha deve conter uma letra minúscula"},
		{"missing digit", "Abcdefg!", "a senha deve conter um número"},
		{"missing symbol", "Abcdefg1", "a senha deve conter um símbolo"},
		{"valid", "Abcdef1!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPasswordStrength(tc.password)
			if tc.reason == "" {
				if err != nil {
					t.Fatalf("expected strong password, got %v", err)
				}
				return
			}
			var weak *WeakPasswordError
			if !errors.As(err, &weak) {
				t.Fatalf("expected WeakPasswordError, got %v", err)
			}
			if weak.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, weak.Reason)
			}
		})
	}
}

func TestCheckPasswordStrengthReportsLengthFirst(t *testing.T) {
	// A short all-lowercase password violates several rules; length wins.
	err := CheckPasswordStrength("abc")
	var weak *WeakPasswordError
	if !errors.As(err, &weak) {
		t.Fatalf("expected WeakPasswordError, got %v", err)
	}
	if weak.Reason != "a senha deve ter no mínimo 8 caracteres" {
		t.Fatalf("expected length reason, got %q", weak.Reason)
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("Abcdef1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("Abcdef1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct digests for the same input")
	}
	if !VerifyPassword("Abcdef1!", first) || !VerifyPassword("Abcdef1!", second) {
		t.Fatalf("expected both digests to verify")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	if VerifyPassword("Abcdef1!", "not-a-bcrypt-digest") {
		t.Fatalf("malformed digest must not verify")
	}
	if VerifyPassword("Abcdef1!", "") {
		t.Fatalf("empty digest must not verify")
	}
}
