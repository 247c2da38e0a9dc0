package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var dotEnvFile = ".env"

// EnvConfig maps environment variables onto configuration fields. Unset
// variables leave the current values untouched.
type EnvConfig struct {
	EndpointAddrHTTP string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC string        `env:"GRPC_ADDR"`
	DatabaseDSN      string        `env:"DATABASE_DSN"`
	SecretKey        string        `env:"SECRET_KEY"`
	SessionTTL       time.Duration `env:"SESSION_TTL"`
	SessionBackend   string        `env:"SESSION_BACKEND"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB"`
	S3RootUser       string        `env:"S3_ROOT_USER"`
	S3RootPassword   string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket         string        `env:"S3_BUCKET"`
	S3Region         string        `env:"S3_REGION"`
	S3BaseEndpoint   string        `env:"S3_BASE_ENDPOINT"`
	ExportTimeout    time.Duration `env:"EXPORT_TIMEOUT"`
	AMQPURL          string        `env:"AMQP_URL"`
	AMQPQueue        string        `env:"AMQP_QUEUE"`
	LogBackend       string        `env:"LOG_BACKEND"`
	LogLevel         string        `env:"LOG_LEVEL"`
	LogFormat        string        `env:"LOG_FORMAT"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"`
	SecureCookie     bool          `env:"SECURE_COOKIE"`
}

// parseEnv overlays environment variables (and the optional .env file) on
// config. Malformed values panic, like a broken JSON file does.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := godotenv.Load(dotEnvFile); err != nil {
			panic(err)
		}
	}

	c := &EnvConfig{}
	if err := env.Parse(c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setString(&config.SessionBackend, c.SessionBackend)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.ExportTimeout, c.ExportTimeout)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPQueue, c.AMQPQueue)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	if c.SecureCookie {
		config.SecureCookie = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
