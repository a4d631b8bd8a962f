package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"dotted local part", "jane.doe@example.com", "Jane Doe"},
		{"single word", "pat@example.com", "Pat"},
		{"underscores and dashes", "mary_ann-lee@example.com", "Mary Ann Lee"},
		{"plus tag", "pat+pairhub@example.com", "Pat Pairhub"},
		{"no at sign", "justaname", "Justaname"},
		{"empty", "", ""},
		{"only separators", "...@example.com", ""},
		{"already capitalized", "Jane@example.com", "Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDisplayName(tt.email))
		})
	}
}
