package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaibs3/mediavault/internal/config"
	"github.com/shaibs3/mediavault/internal/handlers"
	"github.com/shaibs3/mediavault/internal/harvest"
	"github.com/shaibs3/mediavault/internal/router"
	"github.com/shaibs3/mediavault/internal/store"
	"github.com/shaibs3/mediavault/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App represents the main application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	store     store.DbProvider
	engine    *harvest.Engine
	server    *http.Server
}

// NewApp creates and wires the application
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}

	// Use the factory to create the store
	dbProvider, err := newStore(cfg, logger, tel)
	if err != nil {
		return nil, err
	}

	// Harvesting engine shared by the API and the one-shot commands
	engine := newEngine(cfg, logger, dbProvider, harvest.NewMetrics(tel.Meter))

	// Initialize router with handlers
	var limiter = rate.NewLimiter(rate.Limit(cfg.RPSLimit), cfg.RPSBurst)

	handlerList := []router.Handler{
		handlers.NewLinksHandler(dbProvider, engine),
		handlers.NewMediaFilesHandler(dbProvider),
	}

	appRouter := router.NewRouter(limiter, tel, logger, handlerList)
	server := appRouter.CreateServer(":" + cfg.Port)

	return &App{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		store:     dbProvider,
		engine:    engine,
		server:    server,
	}, nil
}

// newStore creates the configured provider, falling back to the in-memory one
func newStore(cfg *config.Config, logger *zap.Logger, tel *telemetry.Telemetry) (store.DbProvider, error) {
	factory := store.NewDbProviderFactory(logger, tel)
	configJSON := cfg.StoreConfig
	if configJSON == "" {
		// Default to in-memory provider
		b, _ := json.Marshal(store.DbProviderConfig{
			DbType:       store.DbTypeMemory,
			ExtraDetails: map[string]interface{}{},
		})
		configJSON = string(b)
	}
	return factory.CreateProvider(configJSON)
}

func newEngine(cfg *config.Config, logger *zap.Logger, dbProvider store.DbProvider, metrics *harvest.Metrics) *harvest.Engine {
	fs := harvest.OSFileSystem{}
	// downloads of large videos must not be cut short by a client timeout
	downloadClient := harvest.NewHTTPClient(0)

	return harvest.NewEngine(harvest.EngineConfig{
		MediaRoot:              cfg.MediaRoot,
		MaxConcurrentDownloads: cfg.MaxConcurrentDownloads,
		Extensions:             cfg.Extensions,
		SiteRules:              harvest.DefaultSiteRules,
	}, harvest.Deps{
		Store:      dbProvider,
		Fetcher:    harvest.NewHTTPPageFetcher(harvest.NewHTTPClient(cfg.PageTimeout), cfg.PageTimeout, cfg.UserAgent),
		FS:         fs,
		Upgrader:   harvest.NewResolutionUpgrader(downloadClient, cfg.ProbeTimeout, cfg.UserAgent, logger, metrics),
		Downloader: harvest.NewDownloader(downloadClient, fs, cfg.UserAgent, logger, metrics),
		Logger:     logger,
		Metrics:    metrics,
	})
}

// Engine exposes the harvesting engine for one-shot commands
func (app *App) Engine() *harvest.Engine {
	return app.engine
}

// Store exposes the configured provider
func (app *App) Store() store.DbProvider {
	return app.store
}

// Start starts the application server
func (app *App) start() error {
	app.logger.Info("starting server", zap.String("port", app.config.Port))

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the application
func (app *App) stop() error {
	app.logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	app.logger.Info("server exited gracefully")
	return app.Close(shutdownCtx)
}

// Close releases the store and flushes telemetry
func (app *App) Close(ctx context.Context) error {
	var errs []error
	if err := app.store.Close(); err != nil {
		app.logger.Error("failed to close store", zap.Error(err))
		errs = append(errs, err)
	}
	if err := app.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run starts the application and waits for shutdown signals
func (app *App) Run() error {
	if err := app.start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	return app.stop()
}
