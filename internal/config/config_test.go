package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "config-test-secret-0123456789"

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT", "WEB_DIR",
		"DISPLAY_TIMEZONE", "CORS_ORIGINS", "TOKEN_TTL", "BCRYPT_COST",
		"LOGIN_RATE", "LOGIN_BURST", "METRICS_ENABLED", "SEED_ON_START",
		"SEED_ADMIN_USERNAME", "SEED_ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "data/clubboard.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "Asia/Seoul", cfg.Display.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.MetricsEnabled())
	assert.False(t, cfg.Seed.OnStart)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: "9000"
  read_timeout: 5s
  cors_origins: ["http://localhost:5173"]
database:
  path: /tmp/board.db
auth:
  jwt_secret: yaml-secret-long-enough
  token_ttl: 30m
metrics:
  enabled: false
log:
  level: debug
  format: json
`)
	t.Setenv("PORT", "7000")
	t.Setenv("SEED_ON_START", "true")
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-password")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port, "env beats yaml")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/board.db", cfg.Database.Path)
	assert.Equal(t, "yaml-secret-long-enough", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.MetricsEnabled())
	assert.True(t, cfg.Seed.OnStart)
	assert.Equal(t, "admin", cfg.Seed.AdminUsername)
	assert.Equal(t, "admin-password", cfg.Seed.AdminPassword)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad ttl", map[string]string{"JWT_SECRET": testSecret, "TOKEN_TTL": "two hours"}},
		{"bad cost", map[string]string{"JWT_SECRET": testSecret, "BCRYPT_COST": "high"}},
		{"bad bool", map[string]string{"JWT_SECRET": testSecret, "METRICS_ENABLED": "maybe"}},
		{"bad timezone", map[string]string{"JWT_SECRET": testSecret, "DISPLAY_TIMEZONE": "Mars/Olympus"}},
		{"bad level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"JWT_SECRET": testSecret, "LOG_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load(writeFile(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)

	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 9*3600, offset)
}
