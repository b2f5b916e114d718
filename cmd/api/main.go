package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"voter-canvass-backend/internal/api"
	"voter-canvass-backend/internal/auth"
	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/db"
	"voter-canvass-backend/internal/importer"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/session"
	"voter-canvass-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	repo := db.NewRepository(database)

	// Initialize Redis-backed session store
	redisClient, err := session.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	store := session.NewStore(redisClient, cfg)

	// Initialize S3 upload archive
	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	// Import services
	uploader := importer.NewUploader(store, s3Storage, s3Storage, cfg)
	committer := importer.NewCommitter(store, s3Storage, repo, cfg)

	tokens := auth.NewManager(cfg)
	handler := api.NewHandler(uploader, committer, repo, tokens, cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	api.SetupRoutes(router, handler, tokens)

	// Background janitor for expired, uncommitted uploads
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	janitor := importer.NewJanitor(store, s3Storage, cfg)
	go janitor.Run(ctx)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
