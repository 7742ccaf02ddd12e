package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/config"
	"github.com/noah-isme/student-records-api/internal/database"
	"github.com/noah-isme/student-records-api/internal/handler"
	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/router"
	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	startupCtx, cancelStartup := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	db, err := database.ConnectWithRetry(startupCtx, database.Options{
		Driver:       cfg.DatabaseDriver,
		DSN:          cfg.DatabaseURL,
		Attempts:     cfg.DatabaseConnectAttempts,
		Backoff:      cfg.DatabaseConnectBackoff,
		MaxOpenConns: cfg.DatabaseMaxOpenConns,
		Logger:       logger,
	})
	cancelStartup()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn().Err(err).Msg("failed to close database pool")
		}
	}()

	if err := db.AutoMigrate(models.Migratable()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, grade events will not be published to redis")
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, grade events will not be published to nats")
		} else {
			defer natsConn.Close()
		}
	}

	validate := validation.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	gradeEvents := service.NewGradeEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	studentService := service.NewStudentService(studentRepo, activityService, validate, logger)
	courseService := service.NewCourseService(courseRepo, activityService, validate, logger)
	gradeService := service.NewGradeService(gradeRepo, courseRepo, studentRepo, activityService, gradeEvents, validate, logger)
	transcriptService := service.NewTranscriptService(gradeRepo, courseRepo, studentRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		RequestTimeout: cfg.RequestTimeout,
		AccessLog:      cfg.AppEnv == "development",
		RateLimitMax:   cfg.RateLimitMax,
		RateLimitEvery: cfg.RateLimitWindow,
	})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:    handler.NewStudentHandler(studentService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		GradeHandler:      handler.NewGradeHandler(gradeService, logger),
		TranscriptHandler: handler.NewTranscriptHandler(transcriptService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		DatabasePing: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
