package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edu-platform/quiz-service/internal/cache"
	"github.com/edu-platform/quiz-service/internal/config"
	"github.com/edu-platform/quiz-service/internal/events"
	"github.com/edu-platform/quiz-service/internal/handlers"
	"github.com/edu-platform/quiz-service/internal/jobs"
	"github.com/edu-platform/quiz-service/internal/repositories/postgres"
	"github.com/edu-platform/quiz-service/internal/services"
	"github.com/edu-platform/quiz-service/internal/utils"
	"github.com/edu-platform/quiz-service/internal/validator"
	"github.com/edu-platform/quiz-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	envFile := flag.String("env", "", "env file to load before reading the environment")
	seedFile := flag.String("seed", "", "question bank JSON to import before serving")
	flag.Parse()

	if err := run(*envFile, *seedFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFile, seedFile string) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return err
	}

	logger := utils.NewSlog(cfg.Environment, os.Stdout)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}

	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		cacheService = cache.NewRedisCache(client, "quiz", logger)
	} else {
		memory := cache.NewMemoryCache()
		go memory.Start()
		defer memory.Stop()
		cacheService = memory
		logger.Info("REDIS_URL not set, caching questions in memory")
	}

	eventPublisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		eventPublisher = events.NewMockEventPublisher(logger)
	}
	defer func() {
		if err := eventPublisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	serviceManager := services.NewServiceManager(
		postgres.NewRepository(db),
		cacheService,
		eventPublisher,
		validator.New(),
		logger,
		services.ManagerConfig{
			QuestionCacheTTL: cfg.QuestionCacheTTL,
			MaxTimeSpent:     cfg.Quiz.TimerBudget,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if seedFile != "" {
		if err := seed(ctx, serviceManager.QuestionBank(), seedFile, logger); err != nil {
			return err
		}
	}

	rollup := jobs.NewPracticeRollup(serviceManager.Progress(), cfg.RollupWindow, logger)
	if err := rollup.Start(cfg.RollupSchedule); err != nil {
		return err
	}

	verifier, err := handlers.NewTokenVerifier(cfg)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(utils.LoggerMiddleware(appLogger), utils.ContextLogger(appLogger), gin.Recovery())
	handlers.NewHandlerManager(serviceManager, verifier, appLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Quiz service listening", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	rollup.Stop(shutdownCtx)
	return server.Shutdown(shutdownCtx)
}

// seed imports a question bank file shaped like POST /questions/import
func seed(ctx context.Context, bank services.QuestionBankService, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var req services.ImportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	result, err := bank.Import(ctx, &req)
	if err != nil {
		return fmt.Errorf("failed to import seed file: %w", err)
	}
	logger.Info("Seeded question bank",
		"topic_id", result.TopicID,
		"sections", len(result.Sections),
		"questions", result.Questions)
	return nil
}
