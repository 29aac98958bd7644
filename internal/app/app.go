package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"LocalNewsMapper/internal/config"
	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/infrastructure/cache"
	"LocalNewsMapper/internal/infrastructure/fetch"
	"LocalNewsMapper/internal/infrastructure/google"
	"LocalNewsMapper/internal/infrastructure/refdata"
	"LocalNewsMapper/internal/infrastructure/storage"
	"LocalNewsMapper/internal/logging"
	"LocalNewsMapper/internal/ports"
	"LocalNewsMapper/internal/scanner"
	"LocalNewsMapper/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
	logger   *slog.Logger
}

// New builds a runnable application instance. Reference data and the optional
// export database are opened here so configuration problems surface before
// any network traffic.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := domain.NewRegistry()
	states, err := refdata.LoadStatesFile(cfg.Paths.StatesFile, registry)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	baseLogger.Debug("states loaded", "count", states, "path", cfg.Paths.StatesFile)

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		RetryWait: cfg.Fetch.RetryWait,
	}, baseLogger.With("component", "fetch"))

	pages := cache.NewStore(cfg.Paths.CacheDir, fetcher, baseLogger.With("component", "cache"))

	limit := rate.Limit(cfg.Google.RequestsPerSecond)
	var geocoder ports.Geocoder
	if cfg.Google.GeocodeAPIKey != "" {
		geocoder = google.NewGeocodeClient(google.Options{
			BaseURL: cfg.Google.GeocodeURL,
			APIKey:  cfg.Google.GeocodeAPIKey,
			Limit:   limit,
		}, baseLogger.With("component", "google.geocode"))
	} else {
		baseLogger.Warn("geocoding key not set, only cached locations are used")
	}

	var civic ports.CivicInfo
	if cfg.Google.CivicAPIKey != "" {
		civic = google.NewCivicClient(google.Options{
			BaseURL: cfg.Google.CivicURL,
			APIKey:  cfg.Google.CivicAPIKey,
			Limit:   limit,
		}, baseLogger.With("component", "google.civic"))
	} else {
		baseLogger.Warn("civic information key not set, only cached officials are used")
	}

	siteScanner := scanner.NewSiteScanner(scanner.Deps{
		Registry: registry,
		Pages:    pages,
		Geocoder: geocoder,
		Civic:    civic,
	}, scanner.Options{
		PreferLocal:     cfg.Run.PreferLocal,
		BrokenLinks:     cfg.Crawl.BrokenLinks,
		ExcludedAuthors: cfg.Crawl.ExcludedAuthors,
		Cutoff:          cfg.Run.Cutoff,
		LocaleAttempts:  cfg.Crawl.LocaleAttempts,
		Diagnostics:     os.Stdout,
	}, baseLogger.With("component", "scanner"))

	mode := storage.ModeFull
	if cfg.Run.Grade {
		mode = storage.ModeGrade
	}
	header := storage.NewHeader(mode, time.Now())
	snapshots := storage.NewSnapshotFile(cfg.SnapshotPath(), header, baseLogger.With("component", "snapshot"))

	var (
		db       *sql.DB
		exporter ports.Exporter
	)
	if cfg.Export.SQLitePath != "" {
		db, err = storage.OpenSQLite(ctx, cfg.Export.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open export database: %w", err)
		}
		exporter = storage.NewSQLiteExporter(db, header, baseLogger.With("component", "export"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:  registry,
		Pages:     pages,
		Scanner:   siteScanner,
		Snapshots: snapshots,
		Exporter:  exporter,
		Report:    os.Stdout,
		Logger:    baseLogger.With("component", "pipeline"),
	}, usecase.PipelineOptions{
		DirectoryURL:  cfg.Crawl.DirectoryURL,
		DirectoryPath: cfg.Paths.DirectoryFile,
		PreferLocal:   cfg.Run.PreferLocal,
		SiteLimit:     cfg.Run.SiteLimit,
	})

	return &Application{
		cfg:      cfg,
		pipeline: pipeline,
		db:       db,
		logger:   baseLogger,
	}, nil
}

// Run performs a single crawl.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	a.logger.Info("run started", "grade", a.cfg.Run.Grade, "prefer_local", a.cfg.Run.PreferLocal)
	summary, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("run finished", "visited", summary.Visited, "skipped", summary.Skipped,
		"snapshot", a.cfg.SnapshotPath())
	return nil
}

// Close releases the export database, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
