package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeConnectionString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keyword password",
			input: "host=db port=5432 password=hunter2 dbname=glossary",
			want:  "host=db port=5432 password=[REDACTED] dbname=glossary",
		},
		{
			name:  "url credentials",
			input: "postgres://glossary:hunter2@db:5432/glossary",
			want:  "postgres://[REDACTED]@[REDACTED]/glossary",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeConnectionString(tt.input))
		})
	}
}

func TestSanitizeError(t *testing.T) {
	err := errors.New("request failed: Authorization: Bearer abc123.def456 returned 401")
	got := SanitizeError(err)
	assert.NotContains(t, got, "abc123")
	assert.Contains(t, got, "Bearer [REDACTED]")

	assert.Equal(t, "", SanitizeError(nil))
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short fully masked", "abc123", "******"},
		{"long keeps last four", "sk-verylongsecret9876", "*****************9876"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskSecret(tt.secret))
		})
	}
}
