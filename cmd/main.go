package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/adapters/ai"
	"github.com/selivandex/newsdigest/internal/adapters/config"
	"github.com/selivandex/newsdigest/internal/adapters/database"
	"github.com/selivandex/newsdigest/internal/adapters/fetch"
	"github.com/selivandex/newsdigest/internal/adapters/telegram"
	"github.com/selivandex/newsdigest/internal/news"
	"github.com/selivandex/newsdigest/internal/pipeline"
	"github.com/selivandex/newsdigest/internal/workers"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("news digest starting",
		zap.Strings("symbols", cfg.News.Symbols),
		zap.Duration("interval", cfg.Digest.Interval),
	)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := news.NewRepository(db.DB())
	summarizer := ai.NewSummarizer(&cfg.LLM)
	provider := fetch.NewTradingView(&cfg.News)

	pipe := pipeline.New(repo, summarizer, provider, cfg.Digest.Concurrency, cfg.LLM.MaxRetries)

	var notifier workers.ReportSender
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			return fmt.Errorf("failed to init telegram notifier: %w", err)
		}
		notifier = tg
	}

	group := worker.NewGroup(ctx)
	group.Add(
		workers.NewDigestWorker(pipe, notifier, cfg.News.Symbols, cfg.News.WindowDays),
		cfg.Digest.Interval,
	)
	group.Start()

	<-ctx.Done()
	group.Stop(30 * time.Second)

	logger.Info("news digest stopped")
	return nil
}
