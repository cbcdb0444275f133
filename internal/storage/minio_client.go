package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"listingboard/internal/config"
	"listingboard/internal/logging"
	"listingboard/internal/metrics"
)

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

var _ ObjectStore = (*MinIOClient)(nil)

// NewMinIOClient connects to the configured endpoint and makes sure the bucket
// exists and is publicly readable.
func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	m := &MinIOClient{
		client:    client,
		bucket:    cfg.BucketName,
		region:    cfg.Region,
		publicURL: cfg.PublicURL,
	}

	if err := m.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
		logging.Info().Str("bucket", m.bucket).Msg("created storage bucket")
	}

	if err := m.client.SetBucketPolicy(ctx, m.bucket, fmt.Sprintf(publicReadPolicy, m.bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	return nil
}

func (m *MinIOClient) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error) {
	defer func() { metrics.RecordStorage("upload", err) }()

	// S3 has no conditional put here, so the key is checked first.
	_, err = m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return "", fmt.Errorf("%s: %w", key, ErrObjectExists)
	case minio.ToErrorResponse(err).Code != "NoSuchKey":
		return "", fmt.Errorf("stat object %s: %w", key, err)
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return m.PublicURL(key), nil
}

func (m *MinIOClient) Remove(ctx context.Context, key string) (err error) {
	defer func() { metrics.RecordStorage("remove", err) }()

	err = m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

func (m *MinIOClient) PublicURL(key string) string {
	return publicURL(m.publicURL, m.bucket, key)
}

func (m *MinIOClient) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(rawURL, m.publicURL, m.bucket)
}
