// Package objectstore stores uploaded images in S3-compatible object storage
// such as MinIO, for deployments outside Google Cloud.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
	region          string
}

// singlePutLimit is the largest body sent as one PUT. Anything bigger is
// streamed as a multipart upload.
const singlePutLimit = 5 << 20

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{useSSL: false}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// MinioBlobStore uploads objects into one bucket.
type MinioBlobStore struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioBlobStore(opts ...MinioOpts) (*MinioBlobStore, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket must be set")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioBlobStore{cfg: cfg, client: minioClient}, nil
}

// Upload writes r into the bucket, replacing any object with the same name.
func (s *MinioBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, singlePutLimit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", name, err)
	}
	var body io.Reader = &buf
	if n > singlePutLimit {
		body, n = io.MultiReader(&buf, r), -1
	}

	_, err = s.client.PutObject(ctx, s.cfg.bucket, name, body, n, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", name, err)
	}
	return s.ObjectURL(name), nil
}

// ObjectURL returns the path-style URL of an object in the bucket.
func (s *MinioBlobStore) ObjectURL(name string) string {
	u := *s.client.EndpointURL()
	return fmt.Sprintf("%s/%s/%s", u.String(), s.cfg.bucket, url.PathEscape(name))
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

// WithRegion skips the bucket location lookup the client would otherwise make.
func WithRegion(region string) MinioOpts {
	return func(c *minioConfig) {
		c.region = region
	}
}
