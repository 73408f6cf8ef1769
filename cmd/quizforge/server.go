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
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/quizforge/quizforge/internal/api"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/generate"
	"github.com/quizforge/quizforge/internal/queue"
	"github.com/quizforge/quizforge/internal/render"
	"github.com/quizforge/quizforge/internal/storage"
	"github.com/quizforge/quizforge/internal/worker"
)

const purgeInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quizforge server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "quizforge version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	artifacts, err := render.NewStore(filepath.Join(cfg.Storage.DataDir, cfg.Storage.OutputsDir))
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	jobQueue := queue.New(cfg.Jobs.QueueSize)

	generator := generate.New(
		generate.NewOpenAIClient(cfg.Generator.OpenAIAPIKey, cfg.Generator.Model),
		generate.Options{
			MaxAttempts:    cfg.Generator.MaxAttempts,
			MaxPromptChars: cfg.Generator.MaxPromptChars,
		},
	)

	// Start the worker pool.
	pool := worker.NewPool(store, jobQueue, generator, artifacts, worker.Options{
		Workers:    cfg.Jobs.Workers,
		PopTimeout: cfg.Jobs.PopTimeout,
		JobTTL:     cfg.Jobs.JobTTL,
	})
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		if err := pool.Run(ctx); err != nil {
			slog.Error("worker pool error", "error", err)
		}
	}()

	// Sweep expired records in the background.
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := store.PurgeExpired(); err != nil {
					slog.Warn("purging expired records failed", "error", err)
				} else if n > 0 {
					slog.Debug("purged expired records", "count", n)
				}
			}
		}
	}()

	limits := api.Limits{
		MinQuestions:   cfg.Limits.MinQuestions,
		MaxQuestions:   cfg.Limits.MaxQuestions,
		MinSourceWords: cfg.Limits.MinSourceWords,
		MaxUploadBytes: cfg.Limits.MaxUploadBytes,
	}
	ttls := api.TTLs{
		Job:     cfg.Jobs.JobTTL,
		Session: cfg.Jobs.SessionTTL,
		Upload:  cfg.Jobs.UploadTTL,
	}
	rateLimit := storage.RateLimit{
		PerWindow: cfg.Limits.JobsPerWindow,
		PerDay:    cfg.Limits.JobsPerDay,
		Window:    cfg.Limits.RateWindow,
	}

	handler := api.NewAppHandler(api.AppDeps{
		Store:     store,
		Queue:     jobQueue,
		Artifacts: artifacts,
		Limits:    limits,
		TTLs:      ttls,
		RateLimit: rateLimit,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:     store,
		Queue:     jobQueue,
		Limits:    limits,
		TTLs:      ttls,
		RateLimit: rateLimit,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "quizforge listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Let in-flight jobs finish before closing storage.
	stop()
	select {
	case <-poolDone:
	case <-time.After(10 * time.Second):
		slog.Warn("worker pool did not stop in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
