package token

import (
	"strings"
	"testing"
)

func TestNewProducesUniqueValidTokens(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(tok, "ord_") {
			t.Fatalf("token %q missing prefix", tok)
		}
		if !Valid(tok) {
			t.Fatalf("token %q not valid by its own check", tok)
		}
		if _, ok := seen[tok]; ok {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "empty string",
			token: "",
			want:  false,
		},
		{
			name:  "missing prefix",
			token: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			want:  false,
		},
		{
			name:  "prefix with bad base64",
			token: "ord_!!!not-base64!!!",
			want:  false,
		},
		{
			name:  "prefix with short payload",
			token: "ord_AAAA",
			want:  false,
		},
		{
			name:  "well formed token",
			token: "ord_" + strings.Repeat("A", 43),
			want:  true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Valid(tc.token); got != tc.want {
				t.Fatalf("Valid(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}
}
