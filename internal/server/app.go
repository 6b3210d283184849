// Package server initializes and runs the media ingestion server.
// It opens the database, runs migrations, selects the storage backend,
// wires the ingestion pipeline, and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/wayfare/internal/logging"
	"github.com/dmitrijs2005/wayfare/internal/media/derive"
	"github.com/dmitrijs2005/wayfare/internal/media/meta"
	"github.com/dmitrijs2005/wayfare/internal/server/config"
	"github.com/dmitrijs2005/wayfare/internal/server/httpapi"
	"github.com/dmitrijs2005/wayfare/internal/server/ingest"
	"github.com/dmitrijs2005/wayfare/internal/server/quotas"
	"github.com/dmitrijs2005/wayfare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wayfare/internal/server/storage"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	ingestSvc *ingest.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	quotaSvc := quotas.NewService(rm.Quotas(db))
	ingestSvc := ingest.NewService(db, rm, quotaSvc, store,
		meta.NewExifExtractor(), derive.NewGenerator(derive.DefaultSpecs()), logger)

	return &App{config: c, logger: logger, db: db, ingestSvc: ingestSvc}, nil
}

func newStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	switch c.StorageBackend {
	case config.StorageBackendFS:
		return storage.NewFileStorage(c.FSRoot, c.MediaBaseURL)
	case config.StorageBackendS3:
		return storage.NewS3Storage(ctx, storage.S3Options{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKey,
			SecretAccessKey: c.S3SecretKey,
			BaseEndpoint:    c.S3BaseEndpoint,
			PublicBaseURL:   c.MediaBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.ingestSvc, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
