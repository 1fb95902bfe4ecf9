package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"archivist/internal/auth"
	"archivist/internal/cache"
	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/domain/services"
	"archivist/internal/handler"
	"archivist/internal/middleware"
	"archivist/internal/repository/postgres"
	postgresDocsys "archivist/internal/repository/postgres/docsystem"
	postgresMail "archivist/internal/repository/postgres/mail"
	serviceAudit "archivist/internal/service/audit"
	serviceAuth "archivist/internal/service/auth"
	serviceDocsys "archivist/internal/service/docsystem"
	serviceMail "archivist/internal/service/mail"
	"archivist/internal/storage"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Structured logging to stdout, mirrored to a rotated file when LOG_DIR is set
	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"storage", cfg.StorageBackend,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	healthDeps := map[string]handler.Pinger{"database": pool}

	// Cache: Redis when configured, otherwise every lookup misses
	var appCache services.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.TablePrefix)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		appCache = redisCache
		healthDeps["redis"] = redisCache
		logger.Info("redis cache enabled")
	} else {
		logger.Warn("REDIS_URL not set, caching disabled")
	}

	fileStorage, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up file storage: %v", err)
	}

	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load folder catalog: %v", err)
	}

	// Repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	auditRepo := postgres.NewAuditRepository(repoConfig)
	folderRepo := postgresDocsys.NewFolderRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	sequenceRepo := postgresDocsys.NewSequenceRepository(repoConfig)
	mailRepo := postgresMail.NewMailRepository(repoConfig)
	notifRepo := postgresMail.NewNotificationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Services
	authorizer := serviceAuth.NewLevelAuthorizer()
	auditLogger := serviceAudit.NewLogger(auditRepo, logger)
	codes := serviceDocsys.NewCodeGenerator(sequenceRepo, folderRepo, logger)
	treeService := serviceDocsys.NewTreeService(folderRepo, appCache, cfg.TreeCacheTTL, authorizer, logger)
	folderService := serviceDocsys.NewFolderService(folderRepo, txManager, registry, treeService, authorizer, auditLogger, logger)
	docService := serviceDocsys.NewDocumentService(docRepo, folderRepo, codes, fileStorage, txManager, treeService, authorizer, auditLogger, logger)
	archiver := serviceDocsys.NewDocumentArchiver(docRepo, logger)
	notifier := serviceMail.NewNotificationService(notifRepo, userRepo, appCache, cfg.UnreadCacheTTL, authorizer, auditLogger, logger)
	workflow := serviceMail.NewWorkflowService(mailRepo, docRepo, folderRepo, codes, archiver, treeService, notifier, txManager, authorizer, auditLogger, logger)

	if err := folderService.EnsureSystemFolders(ctx); err != nil {
		log.Fatalf("Failed to ensure system folders: %v", err)
	}

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Health:        handler.NewHealthHandler(healthDeps, logger),
		Folders:       handler.NewFolderHandler(folderService, logger),
		Tree:          handler.NewTreeHandler(treeService, logger),
		Documents:     handler.NewDocumentHandler(docService, cfg.ImportRoot, logger),
		Mails:         handler.NewMailHandler(workflow, logger),
		Notifications: handler.NewNotificationHandler(notifier, logger),
	})

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestLogger → Recovery → Timeout → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtVerifier, userRepo, logger, "/health")(h)
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

// newFileStorage selects the durable storage backend
func newFileStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.FileStorage, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Local:    cfg.S3Local,
		}, logger)
	case "local", "":
		return storage.NewLocalStorage(cfg.StorageRoot, logger)
	default:
		return nil, errors.New("STORAGE_BACKEND must be local or s3")
	}
}
