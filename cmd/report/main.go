package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/selivandex/newsdigest/internal/adapters/ai"
	"github.com/selivandex/newsdigest/internal/adapters/config"
	"github.com/selivandex/newsdigest/internal/adapters/database"
	"github.com/selivandex/newsdigest/internal/adapters/fetch"
	"github.com/selivandex/newsdigest/internal/news"
	"github.com/selivandex/newsdigest/internal/pipeline"
	"github.com/selivandex/newsdigest/pkg/logger"
)

func main() {
	var (
		symbol = flag.String("symbol", "GOOGL", "ticker symbol")
		date   = flag.String("date", time.Now().UTC().Format("2006-01-02"), "target date (YYYY-MM-DD)")
		window = flag.Int("window", 1, "fetch window in days")
		ingest = flag.Bool("ingest", false, "fetch and ingest before reporting")
	)
	flag.Parse()

	if err := run(*symbol, *date, *window, *ingest); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(symbol, dateStr string, windowDays int, ingest bool) error {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, ""); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

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

	ctx := context.Background()

	if ingest {
		result, err := pipe.FetchAndIngest(ctx, symbol, day, windowDays)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d articles (%d new, %d updated, %d duplicates)\n",
			result.Fetched, result.New, result.Updated, result.Duplicates)
		if result.Batch != nil && len(result.Batch.Failures) > 0 {
			fmt.Printf("%d articles failed summarization; re-run to retry\n", len(result.Batch.Failures))
		}
	}

	report, err := pipe.CreateDailyReport(ctx, day, symbol)
	if err != nil {
		return err
	}

	fmt.Println(report.AggregateText)
	return nil
}
