package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pr-grading-service/internal/config"
	"pr-grading-service/internal/database"
	"pr-grading-service/internal/gateway"
	"pr-grading-service/internal/handler"
	"pr-grading-service/internal/repository"
	"pr-grading-service/internal/store"
	"pr-grading-service/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warnf(".env not found: %v", err)
	}

	// База данных (database/sql)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	// Репозитории
	prRepo := repository.NewPRRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	reviewerRepo := repository.NewReviewerRepository(db)

	// Кэш курсов
	prStore := store.New()

	// Внешние сервисы
	github := gateway.NewGitHubClient(cfg.GithubAPIURL, cfg.GithubToken, logger)
	agent := gateway.NewAgentClient(cfg.AgentEndpoint, logger)

	// Use Cases
	syncUC := usecase.NewSyncController(prStore, prRepo, courseRepo, github, logger)
	reviewUC := usecase.NewReviewController(prStore, prRepo, courseRepo, reviewerRepo, agent, logger)
	syncUC.SetReviewUseCase(reviewUC)
	publishUC := usecase.NewPublishController(prStore, prRepo, courseRepo, github, logger)
	resultUC := usecase.NewResultController(prStore, prRepo, logger)
	courseUC := usecase.NewCourseController(courseRepo, reviewerRepo, logger)

	// Echo + Handlers
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(handler.LoggingMiddleware(logger))

	apiHandler := &handler.APIHandler{
		CourseHandler:  handler.NewCourseHandler(courseUC, syncUC, logger),
		PRHandler:      handler.NewPRHandler(syncUC, courseUC, logger),
		ReviewHandler:  handler.NewReviewHandler(reviewUC, logger),
		PublishHandler: handler.NewPublishHandler(publishUC, resultUC, courseUC, logger),
	}
	handler.RegisterRoutes(e, apiHandler)

	// Запуск сервера
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil {
			logger.Infof("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatalf("Shutdown failed: %v", err)
	}

	logger.Info("Server exited")
}
