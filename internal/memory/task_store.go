// Package memory provides in-process implementations of the task store, blob
// store and notifier, used by the local server and by tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lllllllleong/imagetaskflow/internal/models"
	"github.com/Lllllllleong/imagetaskflow/internal/services"
)

type TaskStore struct {
	mu          sync.RWMutex
	collection  string
	provisioned map[string]bool
	order       []string
	tasks       map[string]models.TaskState
}

func NewTaskStore(collection string) *TaskStore {
	return &TaskStore{
		collection:  collection,
		provisioned: make(map[string]bool),
		tasks:       make(map[string]models.TaskState),
	}
}

func (ts *TaskStore) EnsureSchema(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.provisioned[ts.collection] = true
	return nil
}

// Collections lists the provisioned collections.
func (ts *TaskStore) Collections() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.provisioned))
	for name := range ts.provisioned {
		names = append(names, name)
	}
	return names
}

func (ts *TaskStore) Create(ctx context.Context, task models.TaskState) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, ok := ts.tasks[task.TaskId]; ok {
		return fmt.Errorf("%w: %s", services.ErrTaskExists, task.TaskId)
	}
	ts.tasks[task.TaskId] = task
	ts.order = append(ts.order, task.TaskId)
	return nil
}

func (ts *TaskStore) ReadByID(ctx context.Context, id string) (models.TaskState, error) {
	ts.mu.RLock()
	task, ok := ts.tasks[id]
	ts.mu.RUnlock()

	if !ok {
		return models.TaskState{}, fmt.Errorf("%w: %s", services.ErrTaskNotFound, id)
	}
	return task, nil
}

func (ts *TaskStore) QueryByID(ctx context.Context, id string) ([]models.TaskState, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var tasks []models.TaskState
	for _, key := range ts.order {
		if t := ts.tasks[key]; t.TaskId == id {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (ts *TaskStore) UpdateResult(ctx context.Context, id, state, processedFilePath string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	task, ok := ts.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrTaskNotFound, id)
	}
	task.State = state
	task.ProcessedFilePath = processedFilePath
	ts.tasks[id] = task
	return nil
}
