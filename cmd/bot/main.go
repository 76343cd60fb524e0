package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"

	superteacher "github.com/mrinal-mann/superteacher-backend"
	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/domain"
	"github.com/mrinal-mann/superteacher-backend/internal/engine"
	"github.com/mrinal-mann/superteacher-backend/internal/grading"
	"github.com/mrinal-mann/superteacher-backend/internal/handler"
	"github.com/mrinal-mann/superteacher-backend/internal/middleware"
	"github.com/mrinal-mann/superteacher-backend/internal/repository"
	"github.com/mrinal-mann/superteacher-backend/internal/session"
	"github.com/mrinal-mann/superteacher-backend/internal/storage"
	"github.com/mrinal-mann/superteacher-backend/internal/vision"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kind := domain.WorkflowKind(cfg.Workflow)
	wf := engine.WorkflowFor(kind)
	factory := engine.SessionFactory(kind)

	// Session store: Postgres when a database is configured, in-memory otherwise
	var store session.Store
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(superteacher.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		store = session.NewPostgresStore(pool, factory)
		slog.Info("using postgres session store")
	} else {
		store = session.NewMemoryStore(factory)
		slog.Info("using in-memory session store")
	}

	// Vision and grading collaborators
	var extractor vision.Extractor
	var primary, backup grading.Grader
	if cfg.DemoMode {
		extractor = vision.DemoExtractor{}
		primary = grading.DemoGrader{}
		slog.Info("demo mode enabled, using canned OCR and deterministic grading")
	} else {
		extractor = vision.NewOpenAIExtractor(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.VisionModel)
		primary = grading.NewOpenAIGrader(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.GradingModel)
		if cfg.GeminiKey != "" {
			backup = grading.NewGeminiGrader(cfg.GeminiKey, cfg.GeminiModel)
		}
	}

	orchestrator := grading.NewOrchestrator(primary, backup, grading.RetryPolicy{
		MaxAttempts: cfg.GradeMaxAttempts,
		BaseDelay:   cfg.GradeBaseDelay,
	})

	objectStore, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		slog.Error("failed to prepare upload storage", "error", err)
		os.Exit(1)
	}

	eng := engine.New(engine.Deps{
		Store:      store,
		Vision:     extractor,
		Storage:    objectStore,
		Grader:     orchestrator,
		Workflow:   wf,
		SessionTTL: cfg.SessionTimeout,
	})

	h := handler.New(handler.Deps{
		Cfg:    cfg,
		Engine: eng,
	})

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
		),
		bot.WithDefaultHandler(h.HandleUpdate),
	}
	if cfg.DropPendingUpdates {
		// Skip the backlog accumulated while the bot was down.
		opts = append(opts, bot.WithInitialOffset(-1))
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	h.Register(b)

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot started", "id", me.ID, "username", me.Username, "workflow", cfg.Workflow)

	b.Start(ctx)

	slog.Info("bot stopped")
}
