package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"issue-detection-service/internal/config"
	"issue-detection-service/internal/db"
	"issue-detection-service/internal/detector"
	httphandler "issue-detection-service/internal/http"
	"issue-detection-service/internal/logger"
	"issue-detection-service/internal/repository"
	"issue-detection-service/internal/service"
	"issue-detection-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to open database")
	}

	// The model is loaded exactly once; a load failure means the service
	// cannot serve any request.
	yolo, err := detector.NewYOLODetector(cfg.Detector.ModelPath, detector.Options{
		ConfThreshold: cfg.Detector.ConfThreshold,
		IoUThreshold:  cfg.Detector.IoUThreshold,
		MaxDetections: cfg.Detector.MaxDetections,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Str("model_path", cfg.Detector.ModelPath).Msg("failed to load detection model")
	}
	defer yolo.Close()

	// Annotated images go to object storage when configured, local disk
	// otherwise.
	var images storage.ImageStore
	s3Client, err := storage.NewS3ClientFromEnv()
	switch {
	case err == nil:
		images = s3Client
		appLogger.Info().Msg("storing annotated images in object storage")
	case errors.Is(err, storage.ErrNotConfigured):
		local, err := storage.NewLocalStore(cfg.Storage.ReportsDir)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to initialize local image storage")
		}
		images = local
		appLogger.Warn().Str("dir", cfg.Storage.ReportsDir).Msg("object storage not configured, storing annotated images on local disk")
	default:
		appLogger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	reportRepo := repository.NewReportRepository(database)
	reportService := service.NewReportService(reportRepo, yolo, images, cfg.Detector.Timeout, appLogger)

	handler := httphandler.NewHandler(reportService, appLogger)
	router := httphandler.NewRouter(handler, cfg.Environment, database, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting issue detection service")

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}
