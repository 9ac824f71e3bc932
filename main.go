package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"showroom/internal/config"
	"showroom/internal/handlers"
	"showroom/internal/middleware"
	"showroom/internal/models"
	"showroom/internal/repositories"
	"showroom/internal/services"
	"showroom/pkg/database"
	"showroom/pkg/logger"
	"showroom/pkg/rabbitmq"
	"showroom/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "showroom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	store, err := newStorage(context.Background(), cfg)
	if err != nil {
		return err
	}

	// Events are optional: without RABBITMQ_URL cars are served without notifications.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log.Named("rabbitmq"))
		if err != nil {
			return err
		}
		defer mqClient.Close()
		events = mqClient

		if err := mqClient.ConsumeCarEvents(logCarEvent(log.Named("events"))); err != nil {
			log.Error("failed to start car event consumer", zap.Error(err))
		}
	}

	app := newApp(cfg, db, store, events, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		serverErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}

// newApp wires repositories, services and handlers into a fiber app.
func newApp(cfg *config.Config, db *gorm.DB, store storage.Storage, events services.EventPublisher, log *zap.Logger) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(db)
	carRepo := repositories.NewGORMCarRepository(db)
	imageRepo := repositories.NewGORMImageRepository(db)
	tagRepo := repositories.NewGORMTagRepository(db)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log.Named("auth"))
	carService := services.NewCarService(carRepo, imageRepo, tagRepo, store, events, log.Named("cars"))

	authHandler := handlers.NewAuthHandler(authService, log.Named("auth"))
	carHandler := handlers.NewCarHandler(carService, cfg.MaxUploadFiles, log.Named("cars"))

	app := fiber.New(fiber.Config{
		AppName:      "showroom",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status": status,
			"events": events != nil,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if disk, ok := store.(*storage.DiskStorage); ok {
		app.Static("/uploads", disk.Dir())
	}

	api := app.Group("/api")
	if cfg.RateLimitMax > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: time.Minute,
		}))
	}
	authHandler.RegisterRoutes(api)
	api.Use("/cars", middleware.AuthRequired(authService, log.Named("auth")))
	carHandler.RegisterRoutes(api)

	return app
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "s3":
		s3cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
		}
		client, err := storage.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Storage(client, s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		return storage.NewDiskStorage(cfg.UploadDir, "uploads")
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code == fiber.StatusInternalServerError {
			log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}
}

func logCarEvent(log *zap.Logger) func(event models.CarEvent) error {
	return func(event models.CarEvent) error {
		log.Info("car event",
			zap.String("type", event.Type),
			zap.Uint("car_id", event.CarID),
			zap.String("user_id", event.UserID),
			zap.Int("images", event.ImageCount),
			zap.Strings("tags", event.Tags),
		)
		return nil
	}
}
