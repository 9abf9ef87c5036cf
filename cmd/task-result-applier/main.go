package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/imagetaskflow/internal/api"
	"github.com/Lllllllleong/imagetaskflow/internal/app"
	"github.com/Lllllllleong/imagetaskflow/internal/config"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	applyResult func(context.Context, cloudevents.Event) error
	once        sync.Once
	initErr     error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by the processing pipeline's result topic.
	functions.CloudEvent("ApplyTaskResult", applyTaskResult)
}

// main serves the function locally; in GCP the framework drives init directly.
func main() {
	cfg, err := config.LoadStore()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "ApplyTaskResult")
	}
	if err := funcframework.Start(cfg.Port); err != nil {
		slog.Error("Function server stopped", "error", err)
		os.Exit(1)
	}
}

// applyTaskResult is the Cloud Function entry point.
func applyTaskResult(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.LoadStore()
		if initErr != nil {
			return
		}
		var a *app.App
		a, initErr = app.NewTaskResults(context.Background(), cfg)
		if initErr != nil {
			return
		}
		applyResult = api.ResultHandler(a.Results)
	})
	if initErr != nil {
		// If initialization fails, log the fatal error and the function will terminate.
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	return applyResult(ctx, e)
}
