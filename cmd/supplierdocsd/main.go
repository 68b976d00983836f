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

	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/export"
	"github.com/agrolink-ro/supplier-docs/internal/metrics"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
	"github.com/agrolink-ro/supplier-docs/internal/ocr/openai"
	"github.com/agrolink-ro/supplier-docs/internal/ocr/tesseract"
	"github.com/agrolink-ro/supplier-docs/internal/pipeline"
	"github.com/agrolink-ro/supplier-docs/internal/repository"
	"github.com/agrolink-ro/supplier-docs/internal/server"
	"github.com/agrolink-ro/supplier-docs/internal/service"
	"github.com/agrolink-ro/supplier-docs/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := common.NewJSONLogger("supplier-docs", os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		return fmt.Errorf("database health: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	store, err := storage.NewLocalFS(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("open blob storage: %w", err)
	}

	var provider ocr.Provider
	switch cfg.OCR.Provider {
	case "tesseract":
		provider = tesseract.NewEngine(cfg.OCR.TesseractLangs, logger)
	case "openai":
		provider = openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		}, logger)
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", cfg.OCR.Provider)
	}
	logger.Info("ocr provider selected", "provider", provider.Name())

	m := metrics.New("supplier-docs")
	docRepo := repository.NewDocumentRepository(db, logger)
	resultRepo := repository.NewExtractionResultRepository(db, logger)

	gate := pipeline.NewProviderGate(pipeline.GateConfig{
		MaxConcurrent:  cfg.OCR.MaxConcurrent,
		RequestsPerSec: cfg.OCR.RequestsPerSec,
		Burst:          cfg.OCR.Burst,
	}, logger)
	processor := pipeline.NewProcessor(docRepo, resultRepo, store, provider, gate, m, logger, cfg.OCR.Timeout)
	queue := pipeline.NewExtractorQueue(processor, m, logger,
		pipeline.WithWorkers(cfg.OCR.Workers),
		pipeline.WithQueueSize(cfg.OCR.QueueSize),
	)

	docService := service.NewDocumentService(docRepo, resultRepo, store, queue, m, logger, cfg.Upload.MaxBytes)
	exporter := export.NewService(docRepo, resultRepo, logger)

	health := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, 2*time.Second, logger)
	}
	router := server.NewRouter(docService, exporter, m, health, logger, cfg.Upload.MaxBytes)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
	return nil
}
