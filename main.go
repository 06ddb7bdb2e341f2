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

	"github.com/bidintell-inc/bidiq-engine/pkg/config"
	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/handlers"
	"github.com/bidintell-inc/bidiq-engine/pkg/llm"
	"github.com/bidintell-inc/bidiq-engine/pkg/mcp"
	"github.com/bidintell-inc/bidiq-engine/pkg/middleware"
	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
	"github.com/bidintell-inc/bidiq-engine/pkg/retry"
	"github.com/bidintell-inc/bidiq-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.String("oracle_provider", cfg.Oracle.Provider),
		zap.Bool("roster_cache", cfg.Redis.Host != ""))

	ctx := context.Background()

	// Connect to PostgreSQL with retry (the database may still be starting).
	connStr := cfg.Database.ConnectionString()
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Optional Redis roster cache. Nil client means every read hits Postgres.
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Oracle client for fuzzy matching and duplicate analysis.
	llmClient, err := llm.NewFromConfig(&cfg.Oracle, logger)
	if err != nil {
		logger.Fatal("Failed to create oracle client", zap.Error(err))
	}
	matchOracle := oracle.New(llmClient, cfg.Oracle.Timeout(), logger)

	// Repositories
	contractorRepo := repositories.NewContractorRepository()
	queueRepo := repositories.NewReviewQueueRepository()
	referenceRepo := repositories.NewReferenceRepository()

	// Services
	rosterService := services.NewRosterService(contractorRepo, redisClient, cfg.Redis.RosterTTL(), logger)
	matcherService := services.NewMatcherService(contractorRepo, rosterService, matchOracle, logger)
	submissionService := services.NewSubmissionService(contractorRepo, queueRepo, referenceRepo, rosterService, matchOracle, logger)
	reviewService := services.NewReviewService(contractorRepo, queueRepo, referenceRepo, rosterService, logger)

	mux := http.NewServeMux()
	orgMiddleware := handlers.NewOrgMiddleware(db, logger)

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	contractorHandler := handlers.NewContractorHandler(matcherService, submissionService, logger)
	contractorHandler.RegisterRoutes(mux, orgMiddleware)

	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	reviewHandler.RegisterRoutes(mux, orgMiddleware)

	// MCP surface for agent callers.
	mcpServer := mcp.NewServer("bidiq-engine", cfg.Version, logger)
	mcp.RegisterTools(mcpServer.MCP(), &mcp.ToolDeps{
		DB:         db,
		Matcher:    matcherService,
		Submission: submissionService,
		Review:     reviewService,
		Logger:     logger,
	})
	mcpHandler := handlers.NewMCPHandler(mcpServer, logger)
	mcpHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting bidiq-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal, then drain in-flight requests.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations applies pending migrations over a database/sql connection,
// which golang-migrate requires.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}
