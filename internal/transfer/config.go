package transfer

import (
	"flag"
	"io"

	"github.com/caarlos0/env/v6"
)

// Config holds the connection settings for the transfer commands. Flags win
// over environment variables; an empty AccessKey selects the default AWS
// credential chain.
type Config struct {
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
}

// ParseConfig reads the environment and then the leading flags of args. The
// remaining positional arguments are returned.
//
// Supported flags:
//
//	-access-key string  S3 access key id
//	-secret-key string  S3 secret access key
//	-region string      S3 region
//	-endpoint string    custom endpoint, e.g. "http://127.0.0.1:9000"
func ParseConfig(args []string, output io.Writer) (*Config, []string, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet("s3cli", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.AccessKey, "access-key", cfg.AccessKey, "S3 access key id")
	fs.StringVar(&cfg.SecretKey, "secret-key", cfg.SecretKey, "S3 secret access key")
	fs.StringVar(&cfg.Region, "region", cfg.Region, "S3 region")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "custom S3 endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}
