package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/adapters/source"
	"github.com/termforge/glossary-engine/pkg/catalog"
	"github.com/termforge/glossary-engine/pkg/config"
	"github.com/termforge/glossary-engine/pkg/database"
	"github.com/termforge/glossary-engine/pkg/handlers"
	"github.com/termforge/glossary-engine/pkg/llm"
	"github.com/termforge/glossary-engine/pkg/logging"
	"github.com/termforge/glossary-engine/pkg/middleware"
	"github.com/termforge/glossary-engine/pkg/repositories"
	"github.com/termforge/glossary-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("database_enabled", cfg.Database.Enabled()),
		zap.String("catalog_base_url", cfg.Catalog.BaseURL))

	ctx := context.Background()

	repo, dbClose, err := newTermRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize term store", zap.Error(err))
	}
	defer dbClose()

	var catalogClient catalog.CatalogClient
	var adapters []source.SourceAdapter
	if cfg.Catalog.BaseURL != "" {
		client, err := catalog.NewClient(catalog.ClientConfig{
			BaseURL: cfg.Catalog.BaseURL,
			APIKey:  cfg.Catalog.APIKey,
			Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create catalog client", zap.Error(err))
		}
		catalogClient = client
		adapters = []source.SourceAdapter{
			source.NewRelationalAdapter(client, logger),
			source.NewBIMeasureAdapter(client, logger),
		}
	} else {
		logger.Warn("No catalog configured, generation and publish are disabled until CATALOG_BASE_URL is set")
	}

	factory := llm.NewClientFactory(llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	llmClient, err := factory.Create()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.Generation.BatchSize}, logger)
	aggregator := source.NewAggregator(adapters, logger)

	generation := services.NewGenerationService(llmClient, pool, services.NewContextBuilder(), cfg.LLM.Temperature, logger)
	review := services.NewReviewService(repo, logger)
	publish := services.NewPublishService(repo, catalogClient, cfg.Generation.TargetGlossary, logger)
	bulk := services.NewBulkService(review, publish, logger)
	workflow := services.NewWorkflowService(aggregator, generation, repo, catalogClient, cfg.Generation, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSettingsHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewTermHandler(repo, review, bulk, logger).RegisterRoutes(mux)
	handlers.NewGenerateHandler(workflow, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting glossary-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// newTermRepository picks the term store: Postgres with migrations applied
// when a database host is configured, in-memory otherwise.
func newTermRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.TermRepository, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Info("No database configured, using in-memory term store")
		return repositories.NewMemoryTermRepository(), func() {}, nil
	}

	connStr := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("conn", logging.SanitizeConnectionString(connStr)))

	db, err := database.NewConnection(ctx, database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repositories.NewTermRepository(db), db.Close, nil
}
