package transfer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &manager.UploadOutput{}, nil
}

type fakeDownloader struct {
	content []byte
	err     error
}

func (f *fakeDownloader) Download(_ context.Context, w io.WriterAt, _ *s3.GetObjectInput, _ ...func(*manager.Downloader)) (int64, error) {
	if f.err != nil {
		_, _ = w.WriteAt([]byte("partial"), 0)
		return 0, f.err
	}
	n, err := w.WriteAt(f.content, 0)
	return int64(n), err
}

func TestClient_Upload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))

	up := &fakeUploader{}
	c := &Client{uploader: up}

	require.NoError(t, c.Upload(context.Background(), "exports", src, "reports/report.txt"))
	assert.Equal(t, "exports", up.bucket)
	assert.Equal(t, "reports/report.txt", up.key)
	assert.Equal(t, []byte("hello"), up.body)
}

func TestClient_Upload_Errors(t *testing.T) {
	c := &Client{uploader: &fakeUploader{}}
	err := c.Upload(context.Background(), "b", filepath.Join(t.TempDir(), "missing"), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	c = &Client{uploader: &fakeUploader{err: errors.New("access denied")}}
	err = c.Upload(context.Background(), "b", src, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/k")
}

func TestClient_Download(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	c := &Client{downloader: &fakeDownloader{content: []byte("payload")}}

	n, err := c.Download(context.Background(), "b", "k", dst)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestClient_Download_RemovesPartialFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	c := &Client{downloader: &fakeDownloader{err: errors.New("NoSuchKey")}}

	_, err := c.Download(context.Background(), "b", "k", dst)
	require.Error(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestDefaultLocalPath(t *testing.T) {
	assert.Equal(t, "alice.txt", DefaultLocalPath("exports/alice.txt"))
	assert.Equal(t, "file", DefaultLocalPath("file"))
}
