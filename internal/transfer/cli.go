package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const usage = `usage:
  s3cli [flags] upload <bucket> <local_file> <key>
  s3cli [flags] download <bucket> <key> [local_file]`

var errUsage = errors.New("invalid arguments")

// newClient is a test seam for NewClient.
var newClient = func(ctx context.Context, cfg *Config) (transferClient, error) {
	return NewClient(ctx, cfg)
}

type transferClient interface {
	Upload(ctx context.Context, bucket, localPath, key string) error
	Download(ctx context.Context, bucket, key, localPath string) (int64, error)
}

// Run executes one s3cli command and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := ParseConfig(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		secret, err := promptSecret(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read secret key: %v\n", err)
			return 1
		}
		cfg.SecretKey = secret
	}

	switch rest[0] {
	case "upload":
		err = runUpload(ctx, cfg, rest[1:], stdout)
	case "download":
		err = runDownload(ctx, cfg, rest[1:], stdout)
	default:
		err = errUsage
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s failed: %v\n", rest[0], err)
		return 1
	}
	return 0
}

func runUpload(ctx context.Context, cfg *Config, args []string, stdout io.Writer) error {
	if len(args) != 3 {
		return errUsage
	}
	bucket, localPath, key := args[0], args[1], args[2]

	c, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	if err := c.Upload(ctx, bucket, localPath, key); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Uploaded %s to s3://%s/%s\n", localPath, bucket, key)
	return nil
}

func runDownload(ctx context.Context, cfg *Config, args []string, stdout io.Writer) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	bucket, key := args[0], args[1]
	localPath := DefaultLocalPath(key)
	if len(args) == 3 {
		localPath = args[2]
	}

	c, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	n, err := c.Download(ctx, bucket, key, localPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Downloaded s3://%s/%s to %s (%d bytes)\n", bucket, key, localPath, n)
	return nil
}
