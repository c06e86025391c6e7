package pipeline

import (
	"context"
	"fmt"

	"github.com/selivandex/newsdigest/pkg/models"
)

// Deduplicator decides whether an incoming article is novel. The verdict
// drives everything downstream: duplicates never touch the store or the
// summarizer, updates invalidate the prior summary.
type Deduplicator struct {
	store Store
}

// NewDeduplicator creates new deduplicator over the article store
func NewDeduplicator(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// Classify compares the article's identity key and content hash against
// stored state
func (d *Deduplicator) Classify(ctx context.Context, article models.Article) (models.Classification, error) {
	storedHash, found, err := d.store.GetArticleState(ctx, article.Identity)
	if err != nil {
		return "", fmt.Errorf("failed to classify article: %w", err)
	}

	if !found {
		return models.ClassNew, nil
	}
	if storedHash == article.ContentHash {
		return models.ClassDuplicate, nil
	}
	return models.ClassUpdated, nil
}
