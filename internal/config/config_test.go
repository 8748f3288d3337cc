package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef0123456789"
	testRefreshSecret = "refresh-secret-0123456789abcdef012345678"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auth")
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, DirectoryPostgres, cfg.DirectoryDriver)
	require.Equal(t, NotifierLog, cfg.NotifierDriver)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 100, cfg.RateLimitRPM)
	require.Equal(t, "default", cfg.DefaultOrgSlug)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.Empty(t, cfg.GoogleClientIDs)
	require.False(t, cfg.IsProduction())
}

func TestParseOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("GOOGLE_CLIENT_IDS", "web.apps.googleusercontent.com, ios.apps.googleusercontent.com ,")
	t.Setenv("NOTIFIER_DRIVER", "redis")
	t.Setenv("PASSWORD_HASH_MEMORY", "19456")

	cfg, err := Parse()
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, []string{"web.apps.googleusercontent.com", "ios.apps.googleusercontent.com"}, cfg.GoogleClientIDs)
	require.Equal(t, NotifierRedis, cfg.NotifierDriver)
	require.Equal(t, uint32(19456), cfg.PasswordHashMemory)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "short access secret",
			env:     map[string]string{"JWT_ACCESS_SECRET": "short"},
			wantErr: "JWT_ACCESS_SECRET must be at least",
		},
		{
			name:    "shared secrets",
			env:     map[string]string{"JWT_REFRESH_SECRET": testAccessSecret},
			wantErr: "must differ",
		},
		{
			name:    "unknown directory driver",
			env:     map[string]string{"DIRECTORY_DRIVER": "sqlite"},
			wantErr: "DIRECTORY_DRIVER",
		},
		{
			name:    "unknown notifier",
			env:     map[string]string{"NOTIFIER_DRIVER": "smtp"},
			wantErr: "NOTIFIER_DRIVER",
		},
		{
			name:    "node id out of range",
			env:     map[string]string{"NODE_ID": "2048"},
			wantErr: "NODE_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMemoryDriverWithoutDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DIRECTORY_DRIVER", DirectoryMemory)

	_, err := Parse()
	require.NoError(t, err)
}
