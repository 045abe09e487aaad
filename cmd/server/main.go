package main

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/playgrid/playgrid-server/internal/api"
	"github.com/playgrid/playgrid-server/internal/config"
	"github.com/playgrid/playgrid-server/internal/logger"
	"github.com/playgrid/playgrid-server/internal/repositories"
	"github.com/playgrid/playgrid-server/internal/services"
)

// @title PlayGrid Developer API
// @version 1.0
// @description Game asset ingest, versioning and test-serving service.
func main() {
	appLog, err := logger.New(config.Envs.Environment)
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer appLog.Sync()

	// Connect to database
	repositories.ConnectDatabase()
	db := repositories.DB

	contentRoot, err := filepath.Abs(config.Envs.Storage.ContentRoot)
	if err != nil {
		appLog.Fatal("invalid content root", "path", config.Envs.Storage.ContentRoot, "error", err)
	}

	var blobs repositories.BlobStore
	switch config.Envs.Storage.Backend {
	case "r2":
		blobs, err = repositories.NewR2BlobStore(config.Envs.Storage.R2)
	default:
		blobs, err = repositories.NewLocalBlobStore(contentRoot, config.Envs.PublicBaseURL)
	}
	if err != nil {
		appLog.Fatal("could not initialize blob store", "backend", config.Envs.Storage.Backend, "error", err)
	}

	settings := repositories.NewSettingsRepo(db)

	deps := api.Deps{
		Assets:    services.NewAssetService(db, blobs, settings, appLog),
		Games:     services.NewGameService(db, appLog),
		Extractor: services.NewExtractor(db, blobs, contentRoot, config.Envs.PublicBaseURL, config.Envs.Extraction, appLog),
		Log:       appLog,
	}

	handler := api.SetupRouter(deps)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Envs.Port),
		Handler: handler,
		// Timeouts prevent resource exhaustion from slow clients; the
		// write timeout stays generous because build archives up to the
		// main_game ceiling stream through the upload endpoint.
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	appLog.Info("starting PlayGrid server", "port", config.Envs.Port, "storage_backend", config.Envs.Storage.Backend)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Fatal("could not listen", "port", config.Envs.Port, "error", err)
	}
}
