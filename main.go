package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"toolrent-content/config"
	"toolrent-content/handlers"
	"toolrent-content/helper"
	"toolrent-content/logger"
	"toolrent-content/media"
	"toolrent-content/repositories"
	"toolrent-content/routes"
	"toolrent-content/services"
	"toolrent-content/storage"
	"toolrent-content/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(config.LogConfig{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log)
	log.Info().Str("env", cfg.Server.Environment).Msg("Starting content service")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.Database.AutoMigrate {
		if err := config.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to auto-migrate schema")
		}
	} else if err := config.RunMigrations(cfg.Database, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store, err := newObjectStorage(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	articleRepo := repositories.NewArticleRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	// Initialize services
	pipeline := media.NewPipeline(store, log,
		media.WithMaxImageSize(cfg.Media.MaxImageSize),
		media.WithDeleteConcurrency(cfg.Media.DeleteConcurrency),
	)
	validator := validation.NewContentValidator(categoryRepo, cfg.Media.MaxImageSize)

	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	articleService := services.NewArticleService(articleRepo, validator, pipeline, services.MediaFolders{
		MainImage: cfg.Media.ArticleFolder,
		Inline:    cfg.Media.InlineImageFolder,
	}, log)
	categoryService := services.NewCategoryService(categoryRepo)

	// Initialize handlers
	httpHelper := helper.New()
	router := routes.Setup(routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, httpHelper),
		Article:  handlers.NewArticleHandler(articleService, httpHelper, cfg.Media.MaxMultipartSize, pipeline.MaxImageSize()),
		Category: handlers.NewCategoryHandler(categoryService, httpHelper),
	}, cfg.JWT.Secret, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (storage.ObjectStorage, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory object storage, uploads are lost on restart")
		return storage.NewMemoryStorage(cfg.PublicBaseURL), nil
	}

	store, err := storage.NewS3Storage(ctx, storage.S3Config{
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Endpoint:        cfg.Endpoint,
		UsePathStyle:    cfg.UsePathStyle,
		PublicBaseURL:   cfg.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.Bucket).Str("region", cfg.Region).Msg("S3 object storage ready")
	return store, nil
}
