// Package transfer uploads and downloads whole files to and from an
// S3-compatible store using the SDK's multipart transfer manager.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/hashkeeper/internal/objectstore"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

type Client struct {
	uploader   uploader
	downloader downloader
}

// NewClient connects to the store described by cfg.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	s3c, err := objectstore.NewClient(ctx, objectstore.Options{
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		BaseEndpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return &Client{uploader: manager.NewUploader(s3c), downloader: manager.NewDownloader(s3c)}, nil
}

// Upload copies the local file to bucket/key.
func (c *Client) Upload(ctx context.Context, bucket, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Download writes bucket/key to localPath and returns the number of bytes
// written. A partially written file is removed on failure.
func (c *Client) Download(ctx context.Context, bucket, key, localPath string) (int64, error) {
	f, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", localPath, err)
	}

	n, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	cerr := f.Close()
	if err != nil {
		_ = os.Remove(localPath)
		return 0, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	if cerr != nil {
		return 0, cerr
	}
	return n, nil
}

// DefaultLocalPath is the file name used when download gets no local path.
func DefaultLocalPath(key string) string {
	return filepath.Base(key)
}
