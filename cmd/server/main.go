package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lexged/internal/auth"
	"lexged/internal/config"
	"lexged/internal/crm"
	gedRepo "lexged/internal/domain/repositories/ged"
	"lexged/internal/handler"
	"lexged/internal/middleware"
	"lexged/internal/registry"
	"lexged/internal/repository/memory"
	"lexged/internal/repository/postgres"
	postgresGed "lexged/internal/repository/postgres/ged"
	serviceGed "lexged/internal/service/ged"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const maxLogFiles = 5

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.Debug {
		if f, err := config.SetupLogFile("logs", maxLogFiles); err == nil {
			defer f.Close()
			logOutput = io.MultiWriter(os.Stdout, f)
		} else {
			slog.Warn("file logging disabled", "error", err)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage", cfg.Storage,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()

	// Pick the aggregate stores
	var stores gedRepo.Stores
	switch cfg.Storage {
	case "memory":
		logger.Warn("using in-memory storage, data will not survive a restart")
		stores = memory.NewStore().Stores()
	default:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		stores = gedRepo.Stores{
			Tree:      postgresGed.NewTreeStore(repoConfig),
			Files:     postgresGed.NewFileStore(repoConfig),
			Templates: postgresGed.NewTemplateStore(repoConfig),
		}
	}

	// CRM entity source, demo data when no CRM is configured
	var source gedRepo.EntitySource
	if cfg.CRMBaseURL != "" {
		source = crm.NewClient(cfg.CRMBaseURL, cfg.CRMAPIToken)
		logger.Info("CRM source configured", "base_url", cfg.CRMBaseURL)
	} else {
		source = crm.NewDemoSource()
		logger.Warn("no CRM base URL configured, serving demo entities")
	}

	catalog, err := serviceGed.NewTemplateCatalog(stores.Templates, logger)
	if err != nil {
		log.Fatalf("Failed to load template catalog: %v", err)
	}

	entityRegistry := registry.New()
	engine := serviceGed.NewIntegrationEngine(stores, catalog, entityRegistry, source, logger)

	// Populate the registry before serving. A dead CRM must not keep the
	// server down; the registry stays empty until the next POST /api/sync.
	if _, err := engine.SyncEntities(ctx); err != nil {
		logger.Warn("initial CRM sync failed", "error", err)
	}

	logger.Info("services initialized")

	// Create handlers
	treeHandler := handler.NewTreeHandler(engine, logger)
	folderHandler := handler.NewFolderHandler(engine, logger)
	fileHandler := handler.NewFileHandler(engine, logger)
	templateHandler := handler.NewTemplateHandler(engine, catalog, logger)
	syncHandler := handler.NewSyncHandler(engine, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", treeHandler.HealthCheck)

	// Tree routes
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/tree/validate", treeHandler.Validate)

	// Entity folder routes
	mux.HandleFunc("POST /api/entities/{id}/folder", folderHandler.CreateEntityFolder)
	mux.HandleFunc("DELETE /api/entities/{id}/folder", folderHandler.DeleteEntityFolder)
	mux.HandleFunc("POST /api/entities/{id}/transfer", folderHandler.TransferDocuments)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.RegisterFile)
	mux.HandleFunc("POST /api/files/{id}/link", fileHandler.LinkDocument)

	// Template routes
	mux.HandleFunc("GET /api/templates", templateHandler.ListTemplates)
	mux.HandleFunc("POST /api/templates", templateHandler.CaptureTemplate)

	// Sync route
	mux.HandleFunc("POST /api/sync", syncHandler.Sync)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	if cfg.AuthJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		root = middleware.Auth(verifier)(root)
	} else {
		logger.Warn("AUTH_JWKS_URL not set, bearer auth disabled")
	}
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server with graceful shutdown on SIGINT/SIGTERM
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-shutdownCtx.Done():
		logger.Info("shutting down")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
