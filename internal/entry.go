// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/munin/internal/api"
	"github.com/starford/munin/internal/classify"
	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/inbox"
	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/pipeline"
	"github.com/starford/munin/internal/vault"
)

// Deps holds the assembled capture stack. Journal is nil when the
// journal is disabled by configuration.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Journal  *journal.DB
}

// Close releases resources held by the stack.
func (d *Deps) Close() error {
	if d.Journal != nil {
		return d.Journal.Close()
	}
	return nil
}

// Build assembles the capture pipeline from configuration. It creates
// the vault directory if missing and opens the journal database when
// one is configured.
func Build(cfg *Config, logger *slog.Logger) (*Deps, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	fs, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	templates := vault.NewTemplates(cfg.Vault.TemplatesPath())

	extractor := extract.New(extract.Config{
		Timeout:     time.Duration(cfg.Extract.TimeoutSeconds) * time.Second,
		MinPDFChars: cfg.Extract.MinPDFChars,
		OCRBinary:   cfg.Extract.OCRBinary,
	}, logger)

	heuristic := classify.Heuristic{
		Folders: classify.Folders{
			Articles: cfg.Vault.Folders.Articles,
			Ideas:    cfg.Vault.Folders.Ideas,
			Inbox:    cfg.Vault.Folders.Inbox,
		},
		TitleMaxLen: cfg.Extract.TitleMaxLen,
	}

	var model *classify.Model
	if cfg.Classifier.Enabled() {
		model = classify.NewModel(classify.ModelConfig{
			Endpoint:     cfg.Classifier.Endpoint,
			APIKey:       cfg.Classifier.APIKey,
			Model:        cfg.Classifier.Model,
			PromptBudget: cfg.Classifier.PromptBudget,
			Timeout:      time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
			Folders:      cfg.Vault.Folders.List(),
			Fallback:     cfg.Vault.Folders.Inbox,
			TitleMaxLen:  cfg.Extract.TitleMaxLen,
		})
	}

	var jrnl *journal.DB
	if cfg.Journal.Path != "" {
		jrnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
	}

	pipe := pipeline.New(pipeline.Options{
		Extractor: extractor,
		Model:     model,
		Heuristic: heuristic,
		FS:        fs,
		Templates: templates,
		Journal:   jrnl,
		Layout: pipeline.Layout{
			ExportRoot:      cfg.Vault.ExportRoot,
			AttachmentsRoot: cfg.Vault.AttachmentsRoot,
			Templates:       cfg.Vault.Templates,
			DefaultTemplate: cfg.Vault.DefaultTemplate,
		},
		Logger: logger,
	})

	return &Deps{Pipeline: pipe, Journal: jrnl}, nil
}

// NewLogger builds the structured JSON logger and installs it as the
// process default.
func NewLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := NewLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("classifier_enabled", cfg.Classifier.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	deps, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Build API router.
	apiRouter := api.NewRouter(deps.Pipeline, deps.Journal, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start the drop-folder watcher when one is configured.
	if cfg.Inbox.Dir != "" {
		g.Go(func() error {
			return inbox.Watch(gCtx, cfg.Inbox.Dir, deps.Pipeline, logger)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Release the watcher goroutine as well.
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
