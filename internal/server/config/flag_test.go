package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-grpc", ":6000", "-d", "db", "-s", "secret", "-t", "60",
			"-sb", "redis", "-r", "redis:6379", "-u", "user", "-p", "password", "-b", "bucket",
			"-g", "us-west-1", "-e", "http://endpoint", "-q", "amqp://guest@rabbit", "-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP: "127.0.0.1:9090",
				EndpointAddrGRPC: ":6000",
				DatabaseDSN:      "db",
				SecretKey:        "secret",
				SessionTTL:       time.Hour,
				SessionBackend:   "redis",
				RedisAddr:        "redis:6379",
				S3RootUser:       "user",
				S3RootPassword:   "password",
				S3Bucket:         "bucket",
				S3Region:         "us-west-1",
				S3BaseEndpoint:   "http://endpoint",
				AMQPURL:          "amqp://guest@rabbit",
				LogLevel:         "debug",
			}},
		{name: "unrelated flags are ignored", args: []string{"cmd", "-config", "cfg.json", "-x", "1", "-t", "5"},
			expected: &Config{SessionTTL: 5 * time.Minute}},
		{name: "bad int", args: []string{"cmd", "-t", "forever"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_KeepsTTLWithoutFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-sb", "memory"}

	config := &Config{SessionTTL: 90 * time.Second}
	parseFlags(config)

	assert.Equal(t, 90*time.Second, config.SessionTTL)
	assert.Equal(t, "memory", config.SessionBackend)
}
