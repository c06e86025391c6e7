package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

// Batch orchestrates summarization of new and updated articles. Articles
// are summarized independently under bounded concurrency; one failure
// never aborts the batch. Cancellation stops dispatching new work while
// in-flight calls complete and their results are persisted.
type Batch struct {
	store       Store
	llm         Summarizer
	concurrency int
	maxRetries  int
	baseBackoff time.Duration
}

// NewBatch creates new batch summarizer
func NewBatch(store Store, llm Summarizer, concurrency, maxRetries int) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Batch{
		store:       store,
		llm:         llm,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		baseBackoff: time.Second,
	}
}

// SummarizeBatch summarizes every article and attaches the results to
// the store. Stale-write rejections mean another run already advanced
// the article; they are counted and dropped, not reported as failures.
func (b *Batch) SummarizeBatch(ctx context.Context, articles []models.Article) *models.BatchResult {
	result := &models.BatchResult{}
	if len(articles) == 0 {
		return result
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for _, article := range articles {
		article := article
		g.Go(func() error {
			// Checked at dispatch time: a canceled batch issues no new
			// summarization calls, while calls already in flight finish
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Failures = append(result.Failures, models.IngestError{
					Identity: article.Identity,
					URL:      article.URL,
					Err:      err,
					Reason:   "batch canceled before dispatch",
				})
				mu.Unlock()
				return nil
			}

			text, err := b.summarizeWithRetry(ctx, article)
			if err != nil {
				mu.Lock()
				result.Failures = append(result.Failures, models.IngestError{
					Identity: article.Identity,
					URL:      article.URL,
					Err:      err,
					Reason:   err.Error(),
				})
				mu.Unlock()
				return nil
			}

			summary := models.Summary{
				ArticleIdentity: article.Identity,
				ContentHash:     article.ContentHash,
				Text:            text,
				Model:           b.llm.Model(),
				GeneratedAt:     time.Now().UTC(),
			}

			// Completed work is persisted even when the batch was
			// canceled after this call went out
			err = b.store.AttachSummary(context.WithoutCancel(ctx), summary)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, models.ErrStaleSummary):
				logger.Debug("summary dropped, article content moved on",
					zap.String("identity", article.Identity[:12]),
				)
				result.Stale++
			case err != nil:
				result.Failures = append(result.Failures, models.IngestError{
					Identity: article.Identity,
					URL:      article.URL,
					Err:      err,
					Reason:   err.Error(),
				})
			default:
				result.Summarized = append(result.Summarized, summary)
			}
			return nil
		})
	}

	_ = g.Wait()

	logger.Info("summarization batch finished",
		zap.Int("articles", len(articles)),
		zap.Int("summarized", len(result.Summarized)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("stale", result.Stale),
	)

	return result
}

// summarizeWithRetry retries transient failures with exponential backoff
// (1s, 2s, 4s). Non-transient failures surface immediately. The LLM call
// runs on a detached context so an in-flight call finishes after batch
// cancellation; new attempts are not started once the batch is canceled.
func (b *Batch) summarizeWithRetry(ctx context.Context, article models.Article) (string, error) {
	var lastErr error

	for attempt := 0; attempt < b.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * b.baseBackoff
			logger.Debug("retrying summarization",
				zap.String("identity", article.Identity[:12]),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("canceled during retry backoff: %w", ctx.Err())
			}
		}

		text, err := b.llm.Summarize(context.WithoutCancel(ctx), article.Content)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !models.Retryable(err) {
			return "", err
		}

		logger.Warn("transient summarization failure",
			zap.String("identity", article.Identity[:12]),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", b.maxRetries, lastErr)
}
