package config

import (
	"log/slog"
	"testing"

	"github.com/Dosada05/calcetto/squads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"JWT_SECRET_KEY": "secret"}))
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, DefaultServerPort, cfg.ServerPort)
	assert.Equal(t, squads.DefaultMaxCandidates, cfg.BalancerMaxCandidates)
	assert.Equal(t, DefaultLoginRatePerMinute, cfg.LoginRatePerMinute)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.AdminPIN)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET_KEY":          "secret",
		"DATABASE_URL":            "postgres://localhost/calcetto",
		"SERVER_PORT":             "9000",
		"ADMIN_PIN":               "4444",
		"CORS_ALLOWED_ORIGINS":    "https://a.example, https://b.example ,",
		"LOG_LEVEL":               "debug",
		"LOG_FILE":                "/var/log/calcetto.log",
		"BALANCER_MAX_CANDIDATES": "250",
		"LOGIN_RATE_PER_MINUTE":   "0",
		"R2_ACCOUNT_ID":           "acc",
		"R2_ACCESS_KEY_ID":        "key",
		"R2_SECRET_ACCESS_KEY":    "secret",
		"R2_BUCKET_NAME":          "bucket",
		"R2_PUBLIC_BASE_URL":      "https://cdn.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "4444", cfg.AdminPIN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/var/log/calcetto.log", cfg.LogFile)
	assert.Equal(t, 250, cfg.BalancerMaxCandidates)
	assert.Zero(t, cfg.LoginRatePerMinute)
	assert.True(t, cfg.R2.Enabled())
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad port", map[string]string{"JWT_SECRET_KEY": "s", "SERVER_PORT": "abc"}},
		{"port out of range", map[string]string{"JWT_SECRET_KEY": "s", "SERVER_PORT": "70000"}},
		{"bad admin pin", map[string]string{"JWT_SECRET_KEY": "s", "ADMIN_PIN": "12345"}},
		{"bad log level", map[string]string{"JWT_SECRET_KEY": "s", "LOG_LEVEL": "loud"}},
		{"zero candidates", map[string]string{"JWT_SECRET_KEY": "s", "BALANCER_MAX_CANDIDATES": "0"}},
		{"negative login rate", map[string]string{"JWT_SECRET_KEY": "s", "LOGIN_RATE_PER_MINUTE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envOf(tt.vars))
			assert.Error(t, err)
		})
	}
}
