package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nijaru/yt-stt/config"
	"github.com/nijaru/yt-stt/db"
	"github.com/nijaru/yt-stt/download"
	"github.com/nijaru/yt-stt/handlers"
	"github.com/nijaru/yt-stt/logger"
	"github.com/nijaru/yt-stt/services/stt"
	"github.com/nijaru/yt-stt/storage"
	"github.com/nijaru/yt-stt/transcription"
	"github.com/nijaru/yt-stt/youtube"
	"github.com/sirupsen/logrus"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.Log.Dir,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logrus.SetLevel(appLogger.GetLevel())
	logrus.SetFormatter(appLogger.Formatter)
	logrus.SetOutput(appLogger.Out)

	if cfg.Whisper.APIKey == "" {
		appLogger.Warn("OPENAI_API_KEY is not set, transcription requests will fail")
	}

	resolver := youtube.NewClient(youtube.Config{
		PreferredItag: cfg.YouTube.PreferredItag,
	}, appLogger)
	fetcher := download.NewDownloader(download.Config{
		MaxBytes:    cfg.Download.MaxBytes,
		MaxDuration: cfg.Download.Timeout,
		UserAgent:   cfg.Download.UserAgent,
	}, appLogger)
	transcriber := transcription.NewClient(transcription.Config{
		APIKey: cfg.Whisper.APIKey,
		Model:  cfg.Whisper.Model,
		URL:    cfg.Whisper.URL,
	}, appLogger)

	var (
		serviceOpts []stt.Option
		serverOpts  = []handlers.ServerOption{handlers.WithLogger(appLogger)}
	)

	if cfg.DBPath != "" {
		history, err := db.Open(cfg.DBPath)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize history database")
		}
		defer history.Close()
		serviceOpts = append(serviceOpts, stt.WithRecorder(history))
		serverOpts = append(serverOpts, handlers.WithHistory(history))
	}

	spacesCfg := storage.SpacesConfig{
		AccessKey: cfg.Spaces.AccessKey,
		SecretKey: cfg.Spaces.SecretKey,
		Region:    cfg.Spaces.Region,
		Endpoint:  cfg.Spaces.Endpoint,
		Bucket:    cfg.Spaces.Bucket,
	}
	if spacesCfg.Enabled() {
		archive, err := storage.NewSpacesClient(context.Background(), spacesCfg)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize transcript archive")
		}
		serviceOpts = append(serviceOpts, stt.WithArchiver(archive))
		appLogger.WithField("bucket", spacesCfg.Bucket).Info("Transcript archive enabled")
	}

	service := stt.NewService(resolver, fetcher, transcriber, appLogger, serviceOpts...)
	server := handlers.NewServer(cfg, service, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-errCh:
		appLogger.WithError(err).Error("Server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
	appLogger.Info("Server stopped")
}
