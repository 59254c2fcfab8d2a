package directory

import (
	"testing"
)

func TestNewServiceRequiresPool(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPrefixPattern(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"plain", "Ivan", "ivan%"},
		{"trimmed and lowered", "  Олена  ", "олена%"},
		{"percent escaped", "50%", `50\%%`},
		{"underscore escaped", "a_b", `a\_b%`},
		{"backslash escaped", `back\slash`, `back\\slash%`},
		{"empty", "", "%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prefixPattern(tt.term); got != tt.want {
				t.Errorf("prefixPattern(%q) = %q, want %q", tt.term, got, tt.want)
			}
		})
	}
}

func TestTextOrNull(t *testing.T) {
	if got := textOrNull("  "); got.Valid {
		t.Errorf("textOrNull(blank) = %+v, want invalid", got)
	}
	got := textOrNull(" Olena ")
	if !got.Valid || got.String != "Olena" {
		t.Errorf("textOrNull() = %+v, want trimmed valid text", got)
	}
}

func TestNormalizeEmails(t *testing.T) {
	got := normalizeEmails([]string{" a@corp.ua ", "", "  ", "b@corp.ua"})
	if len(got) != 2 || got[0] != "a@corp.ua" || got[1] != "b@corp.ua" {
		t.Errorf("normalizeEmails() = %v, want trimmed non-empty entries", got)
	}
}
