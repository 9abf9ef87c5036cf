package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/imagetaskflow/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is buffered to detect its content type.
const sniffLen = 3072

// ImageService holds the dependencies for the upload and status logic.
// Result handling comes from the embedded TaskResults.
type ImageService struct {
	*TaskResults
	store    TaskStore
	blobs    BlobStore
	notifier Notifier
	newID    func() string
}

// NewImageService creates an ImageService over the given clients.
func NewImageService(store TaskStore, blobs BlobStore, notifier Notifier) *ImageService {
	return &ImageService{
		TaskResults: NewTaskResults(store),
		store:       store,
		blobs:       blobs,
		notifier:    notifier,
		newID:       uuid.NewString,
	}
}

// TaskResults applies processing outcomes to existing tasks. It needs only
// the task store.
type TaskResults struct {
	store    TaskStore
	validate *validator.Validate
}

func NewTaskResults(store TaskStore) *TaskResults {
	return &TaskResults{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Upload stores the image, records a new task for it and announces the task.
// Each step must succeed before the next starts. A failure leaves whatever the
// earlier steps wrote in place.
func (s *ImageService) Upload(ctx context.Context, fileName string, content io.Reader) (string, error) {
	if fileName == "" || content == nil {
		return "", fmt.Errorf("%w: missing file", ErrInvalidUpload)
	}
	logCtx := slog.With("fileName", fileName)
	logCtx.Info("Starting image upload.")

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		logCtx.Warn("Could not read uploaded file", "error", err)
		return "", fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	url, err := s.blobs.Upload(ctx, fileName, contentType, io.MultiReader(bytes.NewReader(head), content))
	if err != nil {
		logCtx.Error("Failed to upload image to blob storage", "error", err)
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	logCtx = logCtx.With("originalFilePath", url)
	logCtx.Info("Image stored.", "contentType", contentType)

	if err := s.store.EnsureSchema(ctx); err != nil {
		logCtx.Error("Failed to ensure task store schema", "error", err)
		return "", fmt.Errorf("failed to ensure task schema: %w", err)
	}

	task, err := s.createTask(ctx, fileName, url)
	if err != nil {
		logCtx.Error("Failed to record task", "error", err)
		return "", err
	}
	logCtx = logCtx.With("taskId", task.TaskId)
	logCtx.Info("Task recorded.", "task", task.String())

	if err := s.notifier.Publish(ctx, task.TaskId); err != nil {
		logCtx.Error("Failed to publish task notification", "error", err)
		return "", fmt.Errorf("failed to publish task %s: %w", task.TaskId, err)
	}

	logCtx.Info("Upload complete.")
	return task.TaskId, nil
}

// createTask persists a fresh record and reads it back to confirm the write.
func (s *ImageService) createTask(ctx context.Context, fileName, url string) (models.TaskState, error) {
	task := models.TaskState{
		TaskId:            s.newID(),
		FileName:          fileName,
		OriginalFilePath:  url,
		ProcessedFilePath: "",
		State:             models.StateCreated,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return models.TaskState{}, fmt.Errorf("failed to create task record: %w", err)
	}
	stored, err := s.store.ReadByID(ctx, task.TaskId)
	if err != nil {
		return models.TaskState{}, fmt.Errorf("failed to read back task %s: %w", task.TaskId, err)
	}
	return stored, nil
}

// Status returns the processed file location of a task if one is set,
// otherwise its state.
func (s *ImageService) Status(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	logCtx := slog.With("taskId", id)

	if err := s.store.EnsureSchema(ctx); err != nil {
		logCtx.Error("Failed to ensure task store schema", "error", err)
		return "", fmt.Errorf("failed to ensure task schema: %w", err)
	}

	tasks, err := s.store.QueryByID(ctx, id)
	if err != nil {
		logCtx.Error("Failed to query task", "error", err)
		return "", fmt.Errorf("failed to query task %s: %w", id, err)
	}
	if len(tasks) == 0 {
		logCtx.Info("No task matches id.")
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if len(tasks) > 1 {
		logCtx.Warn("Query returned more than one task; using the first.", "count", len(tasks))
	}
	return tasks[0].StatusValue(), nil
}

// ApplyResult records the outcome reported by the processing pipeline.
// It is the only path that changes a task after creation.
func (s *TaskResults) ApplyResult(ctx context.Context, res models.TaskResult) error {
	if err := s.validate.Struct(res); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	logCtx := slog.With("taskId", res.TaskId, "state", res.State)

	if err := s.store.EnsureSchema(ctx); err != nil {
		logCtx.Error("Failed to ensure task store schema", "error", err)
		return fmt.Errorf("failed to ensure task schema: %w", err)
	}
	if err := s.store.UpdateResult(ctx, res.TaskId, res.State, res.ProcessedFilePath); err != nil {
		logCtx.Error("Failed to apply task result", "error", err)
		return fmt.Errorf("failed to apply result to task %s: %w", res.TaskId, err)
	}
	logCtx.Info("Task result applied.", "processedFilePath", res.ProcessedFilePath)
	return nil
}
