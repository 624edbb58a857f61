package candidates

import (
	"testing"
	"time"
)

func TestParseNascimento(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
		fails bool
	}{
		{"brazilian format", "25/12/2005", time.Date(2005, 12, 25, 0, 0, 0, 0, time.UTC), false},
		{"iso format", "2005-12-25", time.Date(2005, 12, 25, 0, 0, 0, 0, time.UTC), false},
		{"trims whitespace", "  25/12/2005  ", time.Date(2005, 12, 25, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"impossible day", "31/02/2005", time.Time{}, true},
		{"garbage", "next tuesday", time.Time{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseNascimento(tc.input)
			if tc.fails {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIdade(t *testing.T) {
	hoje := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	if got := Idade(time.Date(2010, 6, 15, 0, 0, 0, 0, time.UTC), hoje); got != 16 {
		t.Fatalf("birthday today: expected 16, got %d", got)
	}
	if got := Idade(time.Date(2010, 6, 16, 0, 0, 0, 0, time.UTC), hoje); got != 15 {
		t.Fatalf("birthday tomorrow: expected 15, got %d", got)
	}
	if got := Idade(time.Date(2010, 6, 14, 0, 0, 0, 0, time.UTC), hoje); got != 16 {
		t.Fatalf("birthday yesterday: expected 16, got %d", got)
	}
}

func TestNormalizeTelefone(t *testing.T) {
	if got := NormalizeTelefone("(11) 91234-5678"); got != "11912345678" {
		t.Fatalf("expected digits only, got %q", got)
	}
	if got := NormalizeTelefone(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestFormatTelefone(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"11912345678", "(11) 91234-5678"},
		{"1133334444", "(11) 3333-4444"},
		{"(11) 91234-5678", "(11) 91234-5678"},
		{"12345", "12345"},
	}
	for _, tc := range cases {
		if got := FormatTelefone(tc.input); got != tc.want {
			t.Fatalf("FormatTelefone(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}
