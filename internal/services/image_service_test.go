package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Lllllllleong/imagetaskflow/internal/memory"
	"github.com/Lllllllleong/imagetaskflow/internal/models"
	"github.com/Lllllllleong/imagetaskflow/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for content type detection.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fixture struct {
	store    *memory.TaskStore
	blobs    *memory.BlobStore
	notifier *memory.Notifier
	svc      *services.ImageService
}

func newFixture() *fixture {
	f := &fixture{
		store:    memory.NewTaskStore("TaskState"),
		blobs:    memory.NewBlobStore("uploads"),
		notifier: memory.NewNotifier(),
	}
	f.svc = services.NewImageService(f.store, f.blobs, f.notifier)
	return f
}

func TestUpload_ThenStatusIsCreated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	taskID, err := f.svc.Upload(ctx, "cat.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	_, err = uuid.Parse(taskID)
	assert.NoError(t, err, "task id should be a UUID")

	state, err := f.svc.Status(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCreated, state)
}

func TestUpload_StoresRecordObjectAndNotification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	taskID, err := f.svc.Upload(ctx, "cat.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	obj, ok := f.blobs.Object("cat.png")
	require.True(t, ok)
	assert.Equal(t, pngHeader, obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	task, err := f.store.ReadByID(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskState{
		TaskId:            taskID,
		FileName:          "cat.png",
		State:             models.StateCreated,
		OriginalFilePath:  "memory://uploads/cat.png",
		ProcessedFilePath: "",
	}, task)

	assert.Equal(t, []string{taskID}, f.notifier.Messages())
}

func TestUpload_LargeFileIsStoredWhole(t *testing.T) {
	f := newFixture()
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0xAB}, 10_000)...)

	_, err := f.svc.Upload(context.Background(), "big.png", bytes.NewReader(content))
	require.NoError(t, err)

	obj, ok := f.blobs.Object("big.png")
	require.True(t, ok)
	assert.Equal(t, content, obj.Data)
}

func TestUpload_SameNameOverwritesAndCreatesNewTask(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, "cat.png", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := f.svc.Upload(ctx, "cat.png", strings.NewReader("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.blobs.Len())
	obj, _ := f.blobs.Object("cat.png")
	assert.Equal(t, "second", string(obj.Data))

	t1, err := f.store.ReadByID(ctx, first)
	require.NoError(t, err)
	t2, err := f.store.ReadByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, t1.OriginalFilePath, t2.OriginalFilePath)
}

func TestUpload_IDsAreUnique(t *testing.T) {
	f := newFixture()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := f.svc.Upload(context.Background(), "a.png", strings.NewReader("x"))
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate task id %s", id)
		seen[id] = true
	}
}

func TestUpload_MissingFile(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Upload(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, services.ErrInvalidUpload)

	_, err = f.svc.Upload(context.Background(), "a.png", nil)
	assert.ErrorIs(t, err, services.ErrInvalidUpload)
}

func TestUpload_UnreadableFile(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Upload(context.Background(), "a.png", io.MultiReader(strings.NewReader("ab"), errReader{}))
	assert.ErrorIs(t, err, services.ErrInvalidUpload)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestUpload_BlobFailureStopsBeforeRecord(t *testing.T) {
	f := newFixture()
	boom := errors.New("bucket unavailable")
	svc := services.NewImageService(f.store, failingBlobs{err: boom}, f.notifier)

	_, err := svc.Upload(context.Background(), "a.png", strings.NewReader("x"))
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.store.Collections(), "schema should not be touched after a failed upload")
	assert.Empty(t, f.notifier.Messages())
}

func TestUpload_PublishFailureLeavesRecord(t *testing.T) {
	f := newFixture()
	boom := errors.New("topic unavailable")
	svc := services.NewImageService(f.store, f.blobs, failingNotifier{err: boom})

	_, err := svc.Upload(context.Background(), "a.png", strings.NewReader("x"))
	require.ErrorIs(t, err, boom)

	_, ok := f.blobs.Object("a.png")
	assert.True(t, ok, "uploaded object is not rolled back")
	assert.Len(t, f.store.Collections(), 1)
}

func TestStatus_UnknownID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Status(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, services.ErrTaskNotFound)
}

func TestStatus_MissingID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Status(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestStatus_ReturnsProcessedPathOnceSet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	taskID, err := f.svc.Upload(ctx, "cat.png", strings.NewReader("x"))
	require.NoError(t, err)

	err = f.svc.ApplyResult(ctx, models.TaskResult{TaskId: taskID, State: "processing"})
	require.NoError(t, err)
	state, err := f.svc.Status(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "processing", state)

	processed := "https://storage.googleapis.com/processed/cat.png"
	err = f.svc.ApplyResult(ctx, models.TaskResult{TaskId: taskID, State: "done", ProcessedFilePath: processed})
	require.NoError(t, err)
	state, err = f.svc.Status(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, processed, state)
}

func TestApplyResult_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		res  models.TaskResult
	}{
		{"missing id", models.TaskResult{State: "done"}},
		{"non uuid id", models.TaskResult{TaskId: "abc", State: "done"}},
		{"missing state", models.TaskResult{TaskId: uuid.NewString()}},
		{"bad url", models.TaskResult{TaskId: uuid.NewString(), State: "done", ProcessedFilePath: "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ApplyResult(ctx, tt.res)
			assert.ErrorIs(t, err, services.ErrInvalidRequest)
		})
	}
}

func TestApplyResult_UnknownTask(t *testing.T) {
	f := newFixture()

	err := f.svc.ApplyResult(context.Background(), models.TaskResult{TaskId: uuid.NewString(), State: "done"})
	assert.ErrorIs(t, err, services.ErrTaskNotFound)
}

func TestTaskResults_StoreOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID, err := f.svc.Upload(ctx, "cat.png", strings.NewReader("x"))
	require.NoError(t, err)

	results := services.NewTaskResults(f.store)
	require.NoError(t, results.ApplyResult(ctx, models.TaskResult{TaskId: taskID, State: "done"}))

	state, err := f.svc.Status(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "done", state)

	err = results.ApplyResult(ctx, models.TaskResult{TaskId: "abc", State: "done"})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

type failingBlobs struct{ err error }

func (b failingBlobs) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", b.err
}

type failingNotifier struct{ err error }

func (n failingNotifier) Publish(context.Context, string) error { return n.err }
