package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"docuvault/internal/access"
	"docuvault/internal/auth"
	"docuvault/internal/blobstore"
	"docuvault/internal/config"
	"docuvault/internal/handler"
	"docuvault/internal/middleware"
	"docuvault/internal/repository/postgres"
	"docuvault/internal/repository/postgres/migrations"
	"docuvault/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logWriter io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logWriter = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// Verify the schema is current before serving traffic
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database for migration check: %v", err)
	}
	if err := migrations.CheckStatus(migrationDB); err != nil {
		migrationDB.Close()
		log.Fatalf("Schema check failed (run cmd/migrate): %v", err)
	}
	migrationDB.Close()

	// Create pgx connection pool
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

	// Content storage
	blobs, err := blobstore.NewFileSystemStore(cfg.UploadRoot)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	directoryRepo := postgres.NewDirectoryRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	permissionRepo := postgres.NewPermissionRepository(repoConfig)
	approvalRepo := postgres.NewApprovalRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Access control
	policy, err := access.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load role policy: %v", err)
	}
	resolver := access.NewResolver(directoryRepo, fileRepo, permissionRepo, logger)

	// Token signing
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}

	// Create services
	authService := auth.NewAuthService(userRepo, tokens, logger)
	directoryService := service.NewDirectoryService(directoryRepo, fileRepo, permissionRepo, txManager, resolver, policy, blobs, logger)
	fileService := service.NewFileService(fileRepo, versionRepo, directoryRepo, permissionRepo, approvalRepo, txManager, resolver, policy, blobs, logger)
	permissionService := service.NewPermissionService(permissionRepo, directoryRepo, fileRepo, userRepo, txManager, resolver, policy, logger)
	approvalService := service.NewApprovalService(fileRepo, approvalRepo, txManager, policy, logger)

	// Create handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	directoryHandler := handler.NewDirectoryHandler(directoryService, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	versionHandler := handler.NewVersionHandler(fileService, logger)
	permissionHandler := handler.NewPermissionHandler(permissionService, logger)
	approvalHandler := handler.NewApprovalHandler(approvalService, logger)
	healthHandler := handler.NewHealthHandler(pool, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/users/me", authHandler.Me)

	// Directory routes
	mux.HandleFunc("POST /api/directories", directoryHandler.CreateDirectory)
	mux.HandleFunc("GET /api/directories", directoryHandler.ListRoot)
	mux.HandleFunc("GET /api/directories/{path...}", directoryHandler.ListDirectory)
	mux.HandleFunc("DELETE /api/directories/{path...}", directoryHandler.DeleteDirectory)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)

	// Version routes
	mux.HandleFunc("GET /api/files/{id}/versions", versionHandler.ListVersions)
	mux.HandleFunc("POST /api/files/{id}/versions/{number}/restore", versionHandler.RestoreVersion)
	mux.HandleFunc("DELETE /api/files/{id}/versions/{number}", versionHandler.DeleteVersion)

	// Permission routes
	mux.HandleFunc("POST /api/permissions", permissionHandler.Grant)
	mux.HandleFunc("DELETE /api/permissions", permissionHandler.Revoke)
	mux.HandleFunc("GET /api/permissions", permissionHandler.ListForResource)
	mux.HandleFunc("GET /api/permissions/check/{resourceType}/{resourceId}", permissionHandler.Check)

	// Approval routes
	mux.HandleFunc("POST /api/files/{id}/approve", approvalHandler.Approve)
	mux.HandleFunc("POST /api/files/{id}/reject", approvalHandler.Reject)
	mux.HandleFunc("GET /api/approvals/pending", approvalHandler.ListPending)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Auth → Routes
	root = middleware.Auth(tokens)(root)
	root = middleware.RequestLogger(logger)(root)
	if cfg.MetricsEnabled {
		root = middleware.Metrics()(root)
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

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
