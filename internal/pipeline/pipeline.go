package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/adapters/fetch"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

// Store is the article store contract the pipeline runs against
type Store interface {
	// GetArticleState returns the stored content hash for an identity
	GetArticleState(ctx context.Context, identity string) (contentHash string, found bool, err error)

	// UpsertArticle persists an article per its dedup classification
	UpsertArticle(ctx context.Context, article models.Article, class models.Classification) (models.Article, error)

	// AttachSummary stores a summary, rejecting stale or orphaned writes
	AttachSummary(ctx context.Context, summary models.Summary) error

	// QueryBySymbolDate returns a day's articles in deterministic order
	QueryBySymbolDate(ctx context.Context, symbol string, day time.Time) ([]models.StoredArticle, error)
}

// Summarizer is the external text-summarization capability
type Summarizer interface {
	Model() string
	Summarize(ctx context.Context, text string) (string, error)
}

// Pipeline wires fetch, dedup, summarization and reporting. One logical
// run per invocation; the store handle is passed in, never ambient.
type Pipeline struct {
	store    Store
	provider fetch.Provider
	dedup    *Deduplicator
	batch    *Batch
}

// New creates new ingestion pipeline
func New(store Store, llm Summarizer, provider fetch.Provider, concurrency, maxRetries int) *Pipeline {
	return &Pipeline{
		store:    store,
		provider: provider,
		dedup:    NewDeduplicator(store),
		batch:    NewBatch(store, llm, concurrency, maxRetries),
	}
}

// FetchAndIngest fetches the symbol's news window from the provider and
// runs the full ingest. Fetch-layer failures (network, expired session)
// surface to the caller untouched.
func (p *Pipeline) FetchAndIngest(ctx context.Context, symbol string, target time.Time, windowDays int) (*models.IngestResult, error) {
	raws, err := p.provider.FetchNews(ctx, symbol, target, windowDays)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", symbol, err)
	}

	return p.ProcessAndSummarize(ctx, symbol, raws)
}

// ProcessAndSummarize validates, classifies and stores raw articles,
// then summarizes the novel ones. Invalid records and per-article
// summarization failures are collected in the result, never aborting
// the batch; store-level errors abort since nothing can proceed safely.
func (p *Pipeline) ProcessAndSummarize(ctx context.Context, symbol string, raws []models.RawArticle) (*models.IngestResult, error) {
	result := &models.IngestResult{Symbol: symbol, Fetched: len(raws)}
	fetchedAt := time.Now().UTC()

	toSummarize := make([]models.Article, 0, len(raws))
	for _, raw := range raws {
		article, err := models.NewArticle(symbol, raw, fetchedAt)
		if err != nil {
			logger.Warn("dropping invalid article",
				zap.String("url", raw.URL),
				zap.Error(err),
			)
			result.Invalid = append(result.Invalid, models.IngestError{
				URL:    raw.URL,
				Err:    err,
				Reason: err.Error(),
			})
			continue
		}

		class, err := p.dedup.Classify(ctx, article)
		if err != nil {
			return result, err
		}

		switch class {
		case models.ClassDuplicate:
			result.Duplicates++
			continue
		case models.ClassNew:
			result.New++
		case models.ClassUpdated:
			result.Updated++
		}

		stored, err := p.store.UpsertArticle(ctx, article, class)
		if err != nil {
			return result, fmt.Errorf("failed to store article %s: %w", article.URL, err)
		}
		toSummarize = append(toSummarize, stored)
	}

	result.Batch = p.batch.SummarizeBatch(ctx, toSummarize)

	logger.Info("ingest finished",
		zap.String("symbol", symbol),
		zap.Int("fetched", result.Fetched),
		zap.Int("new", result.New),
		zap.Int("updated", result.Updated),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", len(result.Invalid)),
	)

	return result, nil
}

// CreateDailyReport projects stored state into the symbol's daily
// report. A date with no articles yields an empty report, not an error.
func (p *Pipeline) CreateDailyReport(ctx context.Context, day time.Time, symbol string) (*models.DailyReport, error) {
	stored, err := p.store.QueryBySymbolDate(ctx, symbol, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles for report: %w", err)
	}

	report := BuildDailyReport(symbol, day, stored)
	report.GeneratedAt = time.Now().UTC()

	return report, nil
}
