package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/imagetaskflow/internal/api"
	"github.com/Lllllllleong/imagetaskflow/internal/app"
	"github.com/Lllllllleong/imagetaskflow/internal/config"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleImageTasks" is the entry point name configured in GCP.
	functions.HTTP("HandleImageTasks", handleImageTasks)
}

// main serves the function locally; in GCP the framework drives init directly.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "HandleImageTasks")
	}
	if err := funcframework.Start(cfg.Port); err != nil {
		slog.Error("Function server stopped", "error", err)
		os.Exit(1)
	}
}

// handleImageTasks is the HTTP handler for uploads and status lookups.
func handleImageTasks(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for one-time initialization of clients.
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		var a *app.App
		a, initErr = app.New(context.Background(), cfg)
		if initErr != nil {
			return
		}
		router = api.NewRouter(a.Service, cfg.MaxUploadBytes)
	})
	if initErr != nil {
		slog.Error("Critical: image service initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
