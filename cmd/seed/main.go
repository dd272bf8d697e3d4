package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"lexged/internal/config"
	"lexged/internal/crm"
	gedRepo "lexged/internal/domain/repositories/ged"
	"lexged/internal/registry"
	"lexged/internal/repository/postgres"
	postgresGed "lexged/internal/repository/postgres/ged"
	serviceGed "lexged/internal/service/ged"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed folders")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping tables...")
		if err := postgresGed.DropSchema(ctx, repoConfig); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := postgresGed.EnsureSchema(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	stores := gedRepo.Stores{
		Tree:      postgresGed.NewTreeStore(repoConfig),
		Files:     postgresGed.NewFileStore(repoConfig),
		Templates: postgresGed.NewTemplateStore(repoConfig),
	}

	catalog, err := serviceGed.NewTemplateCatalog(stores.Templates, logger)
	if err != nil {
		log.Fatalf("Failed to load template catalog: %v", err)
	}

	source := crm.NewDemoSource()
	entityRegistry := registry.New()
	engine := serviceGed.NewIntegrationEngine(stores, catalog, entityRegistry, source, logger)

	// Pull the demo entities into the registry
	result, err := engine.SyncEntities(ctx)
	if err != nil {
		log.Fatalf("Failed to sync demo entities: %v", err)
	}
	log.Printf("Synced demo entities (clients: %d, processes: %d, contracts: %d)",
		result.Clients, result.Processes, result.Contracts)

	// Seed one templated client folder so the tree is not empty
	log.Println("Seeding client folder from the standard template...")
	node, err := engine.CreateFolderFromTemplate(ctx, "template_client_standard", "cli_0001")
	if err != nil {
		log.Fatalf("Failed to seed client folder: %v", err)
	}
	log.Printf("Created folder %s with %d subfolders", node.ID, len(node.Children))

	log.Println("Seeding complete!")
}
