package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"pitchforge/internal/api"
	"pitchforge/internal/config"
	"pitchforge/internal/extract"
	"pitchforge/internal/llm"
	"pitchforge/internal/pipeline"
	"pitchforge/internal/store"
	"pitchforge/internal/visual"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pitchforged: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pitchforged failed", "error", err)
		os.Exit(1)
	}
}

// run wires the daemon together and serves until ctx is canceled or
// the listener fails. It returns only after shutdown completes:
// workers stop before the listener closes, and the store and the
// instance lock release last.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	// One daemon per data dir; a second instance would race on the
	// database and the job queue.
	lock := flock.New(filepath.Join(cfg.DataDir, "pitchforged.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another pitchforged instance is already running (data dir %s)", cfg.DataDir)
	}

	packages, err := store.Open(cfg.DatabasePath)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("open package store %s: %w", cfg.DatabasePath, err)
	}

	stats := llm.NewCallStats(time.Hour)
	gateway := llm.NewClient(llm.Config{
		APIKey:         cfg.LLMAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		Model:          cfg.LLMModel,
		TimeoutSeconds: cfg.LLMTimeoutSeconds,
	},
		llm.WithRetryMaxAttempts(cfg.LLMRetryAttempts),
		llm.WithLogger(log.With("component", "llm")),
		llm.WithStats(stats),
	)

	var source visual.ImageSource
	if cfg.StockImageKey != "" {
		source = visual.NewStockClient(cfg.StockImageURL, cfg.StockImageKey)
	}
	var gen visual.ImageGenerator
	if cfg.AIImageKey != "" {
		gen = visual.NewAIClient(cfg.AIImageURL, cfg.AIImageKey)
	}
	briefs := visual.NewBuilder(source, gen, log.With("component", "visual"))

	runner := pipeline.NewRunner(gateway, cfg.LLMModel,
		pipeline.WithBudgets(pipeline.Budgets{
			ScriptExcerpt: cfg.ScriptExcerptChars,
			StageInput:    cfg.StageInputChars,
		}),
		pipeline.WithStageTimeout(time.Duration(cfg.LLMTimeoutSeconds)*time.Second),
		pipeline.WithRunnerLogger(log.With("component", "pipeline")),
	)
	jobRunner := pipeline.NewJobRunner(runner, packages, briefs,
		extract.Options{OCREnabled: cfg.OCREnabled},
		log.With("component", "jobs"))

	manager := pipeline.NewManager(jobRunner, cfg.Workers, cfg.QueueSize, cfg.JobTTL,
		log.With("component", "manager"))
	manager.Start(ctx)

	srv := api.NewServer(manager, packages, stats, log.With("component", "api"), cfg, version)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.ListenAndServe()
	}()

	log.Info("starting pitchforged",
		"version", version,
		"addr", cfg.Addr,
		"model", cfg.LLMModel,
		"workers", cfg.Workers,
	)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	}

	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}

	gateway.Close()
	if err := packages.Close(); err != nil {
		log.Warn("close package store", "error", err)
	}
	if err := lock.Unlock(); err != nil {
		log.Warn("release instance lock", "error", err)
	}
	return serveErr
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
