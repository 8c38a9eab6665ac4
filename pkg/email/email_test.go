package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDisplayName(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"ana.garcia@example.com", "Ana Garcia"},
		{"sam_diaz@example.com", "Sam Diaz"},
		{"maria-jose.lopez@example.com", "Maria Jose Lopez"},
		{"bob+test@example.com", "Bob Test"},
		{"single@example.com", "Single"},
		{"@example.com", "User"},
		{"", "User"},
		{"no-at-sign", "No At Sign"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveDisplayName(tc.address), "address %q", tc.address)
	}
}
