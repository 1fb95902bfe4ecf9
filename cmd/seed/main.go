package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"archivist/internal/cache"
	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/services"
	docsysSvc "archivist/internal/domain/services/docsystem"
	"archivist/internal/repository/postgres"
	postgresDocsys "archivist/internal/repository/postgres/docsystem"
	serviceAudit "archivist/internal/service/audit"
	serviceAuth "archivist/internal/service/auth"
	serviceDocsys "archivist/internal/service/docsystem"
)

// sampleFolders gives a fresh dev database something to browse
var sampleFolders = []docsysSvc.CreateFolderRequest{
	{Code: "OPS", Name: "Operations", Icon: "briefcase", DisplayOrder: 10},
	{Code: "FIN", Name: "Finance", Icon: "calculator", DisplayOrder: 20},
	{Code: "HR", Name: "Ressources humaines", Icon: "users", DisplayOrder: 30},
	{Code: "LEGAL", Name: "Juridique", Icon: "scale", DisplayOrder: 40},
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema and system folders")
	clearData := flag.Bool("clear-data", false, "Clear mail, documents and non-system folders (keep schema)")
	adminID := flag.Int64("admin-id", 0, "Upsert an active administrator with this user ID")
	adminName := flag.String("admin-username", "admin", "Username for --admin-id")
	samples := flag.Bool("sample-folders", false, "Create sample folders (requires --admin-id)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// Prevent destructive operations in production
	if cfg.IsProduction() && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: --drop-tables and --clear-data are refused in production")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))

	logger.Info("seed starting",
		"environment", cfg.Environment,
		"table_prefix", cfg.TablePrefix,
		"drop_tables", *dropTables,
		"schema_only", *schemaOnly,
		"clear_data", *clearData,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		logger.Info("dropping all tables")
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	logger.Info("ensuring database schema")
	if err := postgres.RunSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *clearData {
		logger.Info("clearing data")
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresDocsys.NewFolderRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	userRepo := postgres.NewUserRepository(repoConfig)

	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load folder catalog: %v", err)
	}

	// Folder changes invalidate the running server's cached tree when Redis is shared
	var treeCache services.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.TablePrefix)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		treeCache = redisCache
	}

	authorizer := serviceAuth.NewLevelAuthorizer()
	treeService := serviceDocsys.NewTreeService(folderRepo, treeCache, cfg.TreeCacheTTL, authorizer, logger)
	auditLogger := serviceAudit.NewLogger(postgres.NewAuditRepository(repoConfig), logger)
	folderService := serviceDocsys.NewFolderService(folderRepo, txManager, registry, treeService, authorizer, auditLogger, logger)

	if err := folderService.EnsureSystemFolders(ctx); err != nil {
		log.Fatalf("Failed to create system folders: %v", err)
	}
	treeService.Invalidate(ctx)
	logger.Info("system folders ready")

	if *schemaOnly {
		logger.Info("schema setup complete (schema-only mode)")
		return
	}

	if *adminID <= 0 {
		if *samples {
			log.Fatalf("--sample-folders requires --admin-id")
		}
		logger.Info("seed complete")
		return
	}

	admin := &models.User{
		ID:             *adminID,
		Username:       *adminName,
		FullName:       "Administrator",
		AuthorityLevel: models.AuthorityAdmin,
		Role:           "admin",
		Active:         true,
	}
	if err := userRepo.Upsert(ctx, admin); err != nil {
		log.Fatalf("Failed to upsert admin user: %v", err)
	}
	logger.Info("admin user ready", "user_id", admin.ID, "username", admin.Username)

	if *samples {
		for i := range sampleFolders {
			req := sampleFolders[i]
			folder, err := folderService.CreateFolder(ctx, admin, &req)
			if errors.Is(err, domain.ErrConflict) {
				logger.Info("sample folder exists", "code", req.Code)
				continue
			}
			if err != nil {
				log.Fatalf("Failed to create folder %s: %v", req.Code, err)
			}
			logger.Info("sample folder created", "code", folder.Code, "path", folder.FullPath)
		}
	}

	logger.Info("seed complete")
}
