package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/pipeline"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

// ReportSender delivers a finished daily report to a notification channel
type ReportSender interface {
	SendDailyReport(report *models.DailyReport) error
}

// DigestWorker periodically ingests the day's news for each configured
// symbol and pushes the resulting daily report. One symbol failing never
// blocks the others.
type DigestWorker struct {
	pipeline   *pipeline.Pipeline
	notifier   ReportSender
	symbols    []string
	windowDays int
}

// NewDigestWorker creates new digest worker; notifier may be nil
func NewDigestWorker(p *pipeline.Pipeline, notifier ReportSender, symbols []string, windowDays int) *DigestWorker {
	return &DigestWorker{
		pipeline:   p,
		notifier:   notifier,
		symbols:    symbols,
		windowDays: windowDays,
	}
}

// Name returns worker name for logging
func (w *DigestWorker) Name() string {
	return "digest"
}

// Run executes one ingest-and-report cycle for all symbols
func (w *DigestWorker) Run(ctx context.Context) error {
	today := time.Now().UTC()

	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := w.pipeline.FetchAndIngest(ctx, symbol, today, w.windowDays)
		if err != nil {
			logger.Error("ingest failed, skipping symbol",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		if result.Batch != nil && len(result.Batch.Failures) > 0 {
			logger.Warn("some articles failed summarization",
				zap.String("symbol", symbol),
				zap.Int("failed", len(result.Batch.Failures)),
			)
		}

		report, err := w.pipeline.CreateDailyReport(ctx, today, symbol)
		if err != nil {
			logger.Error("report generation failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		if w.notifier != nil {
			if err := w.notifier.SendDailyReport(report); err != nil {
				logger.Error("report delivery failed",
					zap.String("symbol", symbol),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}
