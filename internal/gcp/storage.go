package gcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// publicStorageHost is where objects of a public bucket resolve.
const publicStorageHost = "https://storage.googleapis.com"

// UploadToGCS writes content to a GCS object, replacing any existing
// generation. It's a shared utility for all functions.
func UploadToGCS(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, content io.Reader) error {
	writer := bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object", "object", objectName, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok {
			slog.Error("GCS rejected the upload", "object", objectName, "code", gerr.Code, "error", gerr.Message)
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// ObjectURL returns the public URL of an object.
func ObjectURL(bucket, objectName string) string {
	return fmt.Sprintf("%s/%s/%s", publicStorageHost, bucket, url.PathEscape(objectName))
}

// GCSBlobStore stores uploaded images in a single bucket.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore returns a blob store writing into bucket.
func NewGCSBlobStore(client *storage.Client, bucket string) *GCSBlobStore {
	return &GCSBlobStore{client: client, bucket: bucket}
}

func (s *GCSBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := UploadToGCS(ctx, s.client.Bucket(s.bucket), name, contentType, r); err != nil {
		return "", err
	}
	return ObjectURL(s.bucket, name), nil
}
