// Package app builds the clients selected by configuration and the image
// service on top of them. Entry points construct it once per process.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/imagetaskflow/internal/config"
	"github.com/Lllllllleong/imagetaskflow/internal/gcp"
	"github.com/Lllllllleong/imagetaskflow/internal/memory"
	"github.com/Lllllllleong/imagetaskflow/internal/objectstore"
	"github.com/Lllllllleong/imagetaskflow/internal/services"
)

// App holds the image service and the clients it owns.
type App struct {
	Config  *config.Config
	Service *services.ImageService
	Results *services.TaskResults
	closers []func() error
}

// New creates every client the configuration selects.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.newTaskStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	notifier, err := a.newNotifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = services.NewImageService(store, blobs, notifier)
	a.Results = a.Service.TaskResults
	slog.Info("Image service initialized.",
		"store", cfg.StoreConfig.Backend,
		"blob", cfg.BlobConfig.Backend,
		"notifier", cfg.NotifierConfig.Backend,
	)
	return a, nil
}

// NewTaskResults creates only the task store client. Service stays nil.
func NewTaskResults(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	store, err := a.newTaskStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Results = services.NewTaskResults(store)
	slog.Info("Task result service initialized.", "store", cfg.StoreConfig.Backend)
	return a, nil
}

// Close releases all clients, returning the first error seen.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) newTaskStore(ctx context.Context) (services.TaskStore, error) {
	sc := a.Config.StoreConfig
	switch sc.Backend {
	case config.BackendMemory:
		return memory.NewTaskStore(sc.Collection), nil
	case config.BackendFirestore:
		client, err := gcp.NewFirestoreClient(ctx, a.Config.ProjectID, sc.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return gcp.NewFirestoreTaskStore(client, sc.Database, sc.Collection), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}

func (a *App) newBlobStore(ctx context.Context) (services.BlobStore, error) {
	bc := a.Config.BlobConfig
	switch bc.Backend {
	case config.BackendMemory:
		return memory.NewBlobStore(bc.Bucket), nil
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return gcp.NewGCSBlobStore(client, bc.Bucket), nil
	case config.BackendMinio:
		store, err := objectstore.NewMinioBlobStore(
			objectstore.WithEndpoint(bc.MinioEndpoint),
			objectstore.WithBucket(bc.Bucket),
			objectstore.WithAccessKey(bc.MinioAccessKey),
			objectstore.WithSecretKey(bc.MinioSecretKey),
			objectstore.WithSSL(bc.MinioUseSSL),
			objectstore.WithRegion(bc.MinioRegion),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", bc.Backend)
}

func (a *App) newNotifier(ctx context.Context) (services.Notifier, error) {
	nc := a.Config.NotifierConfig
	switch nc.Backend {
	case config.BackendMemory:
		return memory.NewNotifier(), nil
	case config.BackendPubSub:
		client, err := gcp.NewPubSubClient(ctx, a.Config.ProjectID)
		if err != nil {
			return nil, err
		}
		notifier := gcp.NewTopicNotifier(client, nc.Topic)
		a.closers = append(a.closers, client.Close, func() error {
			notifier.Stop()
			return nil
		})
		return notifier, nil
	case config.BackendWorkflow:
		client, err := executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return gcp.NewWorkflowNotifier(client, a.Config.ProjectID, nc.WorkflowLocation, nc.WorkflowID), nil
	}
	return nil, fmt.Errorf("unknown notifier backend %q", nc.Backend)
}
