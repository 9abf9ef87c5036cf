package services

import (
	"context"
	"io"

	"github.com/Lllllllleong/imagetaskflow/internal/models"
)

// TaskStore is the document store holding task records.
type TaskStore interface {
	// EnsureSchema provisions the database and collection if they are absent.
	// It is safe to call any number of times.
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, task models.TaskState) error
	ReadByID(ctx context.Context, id string) (models.TaskState, error)
	// QueryByID returns every record whose id matches, in store order.
	QueryByID(ctx context.Context, id string) ([]models.TaskState, error)
	UpdateResult(ctx context.Context, id, state, processedFilePath string) error
}

// BlobStore stores uploaded originals.
type BlobStore interface {
	// Upload writes r under name, replacing any existing object, and returns
	// a URL the object can be fetched from.
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Notifier announces new tasks to the processing pipeline.
type Notifier interface {
	Publish(ctx context.Context, taskID string) error
}
