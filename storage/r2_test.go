package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"plain", "https://cdn.example.com", "players/1/a.png", "https://cdn.example.com/players/1/a.png"},
		{"trailing slash", "https://cdn.example.com/", "/players/1/a.png", "https://cdn.example.com/players/1/a.png"},
		{"base with path", "https://cdn.example.com/media", "backups/x.json", "https://cdn.example.com/media/backups/x.json"},
		{"empty key", "https://cdn.example.com", "", ""},
		{"empty base", "", "a.png", ""},
		{"no scheme", "cdn.example.com", "a.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(tt.base, tt.key))
		})
	}
}

func TestNewR2UploaderRequiresConfig(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "acc"})
	require.Error(t, err)
	assert.False(t, R2Config{}.Enabled())
}
