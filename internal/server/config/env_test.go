package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Run("overlays set variables only", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://env")
		t.Setenv("SESSION_TTL", "90m")
		t.Setenv("SESSION_BACKEND", "redis")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("EXPORT_TIMEOUT", "3s")
		t.Setenv("SECURE_COOKIE", "true")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
		assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
		assert.Equal(t, "redis", cfg.SessionBackend)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, 3*time.Second, cfg.ExportTimeout)
		assert.True(t, cfg.SecureCookie)
		assert.Equal(t, "dev-secret-key", cfg.SecretKey, "unset variables keep defaults")
	})

	t.Run("malformed duration panics", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "a while")
		require.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("reads .env file", func(t *testing.T) {
		orig := dotEnvFile
		t.Cleanup(func() {
			dotEnvFile = orig
			_ = os.Unsetenv("AMQP_QUEUE")
		})
		dotEnvFile = filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(dotEnvFile, []byte("AMQP_QUEUE=dotenv_queue\n"), 0o600))

		cfg := &Config{}
		parseEnv(cfg)

		assert.Equal(t, "dotenv_queue", cfg.AMQPQueue)
	})
}
