package fetch

import (
	"context"
	"time"

	"github.com/selivandex/newsdigest/pkg/models"
)

// Provider represents a news source provider
type Provider interface {
	// Name returns provider name
	Name() string

	// Enabled returns whether provider is enabled
	Enabled() bool

	// FetchNews returns raw articles for a symbol published inside the
	// trading window starting on the target date and spanning windowDays.
	// An empty result is a valid state, not an error.
	FetchNews(ctx context.Context, symbol string, target time.Time, windowDays int) ([]models.RawArticle, error)
}
