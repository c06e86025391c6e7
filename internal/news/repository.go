package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

// Repository is the Postgres article store. All mutations are
// transactional at single-article granularity; the content-hash guard on
// the upsert and on summary attachment is the serialization point for
// concurrent writers of the same identity.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new article repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetArticleState returns the stored content hash for an identity key,
// or found=false when no article exists. Used by the deduplicator.
func (r *Repository) GetArticleState(ctx context.Context, identity string) (string, bool, error) {
	var hash string
	err := r.db.GetContext(ctx, &hash,
		`SELECT content_hash FROM articles WHERE identity = $1`, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query article state: %w", err)
	}
	return hash, true, nil
}

// UpsertArticle persists an article according to its classification.
// New inserts; Updated replaces content fields and invalidates the prior
// summary in the same transaction; Duplicate is a no-op returning the
// stored row. The conflict clause only fires when the content hash
// actually moved, so two concurrent writers resolve to the last
// committed hash rather than arrival order.
func (r *Repository) UpsertArticle(ctx context.Context, article models.Article, class models.Classification) (models.Article, error) {
	if class == models.ClassDuplicate {
		return r.getArticle(ctx, article.Identity)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (
			identity, symbol, title, content, url, source,
			published_at, published_missing, content_hash, fetched_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (identity) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			content_hash = EXCLUDED.content_hash,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = EXCLUDED.updated_at
		WHERE articles.content_hash IS DISTINCT FROM EXCLUDED.content_hash
	`,
		article.Identity,
		article.Symbol,
		article.Title,
		article.Content,
		article.URL,
		article.Source,
		article.PublishedAt,
		article.PublishedMissing,
		article.ContentHash,
		article.FetchedAt,
		now,
	)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to upsert article: %w", err)
	}

	// A summary computed from a different body revision is stale
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM summaries
		WHERE article_identity = $1 AND content_hash <> $2
	`, article.Identity, article.ContentHash); err != nil {
		return models.Article{}, fmt.Errorf("failed to invalidate stale summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Article{}, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug("article upserted",
		zap.String("identity", article.Identity[:12]),
		zap.String("symbol", article.Symbol),
		zap.String("classification", string(class)),
	)

	return r.getArticle(ctx, article.Identity)
}

// AttachSummary stores a summary for an article. Fails with
// models.ErrArticleNotFound when the article is gone and with
// models.ErrStaleSummary when the article body changed after the
// summarization request was issued.
func (r *Repository) AttachSummary(ctx context.Context, summary models.Summary) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO summaries (article_identity, content_hash, summary, model, generated_at)
		SELECT a.identity, $2, $3, $4, $5
		FROM articles a
		WHERE a.identity = $1 AND a.content_hash = $2
		ON CONFLICT (article_identity) DO UPDATE SET
			content_hash = EXCLUDED.content_hash,
			summary = EXCLUDED.summary,
			model = EXCLUDED.model,
			generated_at = EXCLUDED.generated_at
	`,
		summary.ArticleIdentity,
		summary.ContentHash,
		summary.Text,
		summary.Model,
		summary.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to attach summary: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing written: distinguish a vanished article from a stale hash
	_, found, err := r.GetArticleState(ctx, summary.ArticleIdentity)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrArticleNotFound
	}
	return models.ErrStaleSummary
}

// QueryBySymbolDate returns all articles whose publish timestamp falls
// on the given UTC calendar day, paired with their current summaries.
// A summary for an outdated body revision reads as nil (pending).
// Ordering is publish time ascending with identity-key tiebreak.
func (r *Repository) QueryBySymbolDate(ctx context.Context, symbol string, day time.Time) ([]models.StoredArticle, error) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := r.db.QueryxContext(ctx, `
		SELECT
			a.identity, a.symbol, a.title, a.content, a.url, a.source,
			a.published_at, a.published_missing, a.content_hash,
			a.fetched_at, a.created_at, a.updated_at,
			s.summary, s.model, s.content_hash AS summary_hash, s.generated_at
		FROM articles a
		LEFT JOIN summaries s
			ON s.article_identity = a.identity AND s.content_hash = a.content_hash
		WHERE a.symbol = $1 AND a.published_at >= $2 AND a.published_at < $3
		ORDER BY a.published_at ASC, a.identity ASC
	`, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	stored := make([]models.StoredArticle, 0)
	for rows.Next() {
		var (
			a           models.Article
			summaryText sql.NullString
			model       sql.NullString
			summaryHash sql.NullString
			generatedAt sql.NullTime
		)

		err := rows.Scan(
			&a.Identity, &a.Symbol, &a.Title, &a.Content, &a.URL, &a.Source,
			&a.PublishedAt, &a.PublishedMissing, &a.ContentHash,
			&a.FetchedAt, &a.CreatedAt, &a.UpdatedAt,
			&summaryText, &model, &summaryHash, &generatedAt,
		)
		if err != nil {
			logger.Warn("failed to scan article row", zap.Error(err))
			continue
		}

		item := models.StoredArticle{Article: a}
		if summaryText.Valid {
			item.Summary = &models.Summary{
				ArticleIdentity: a.Identity,
				ContentHash:     summaryHash.String,
				Text:            summaryText.String,
				Model:           model.String,
				GeneratedAt:     generatedAt.Time,
			}
		}
		stored = append(stored, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate article rows: %w", err)
	}

	return stored, nil
}

func (r *Repository) getArticle(ctx context.Context, identity string) (models.Article, error) {
	var a models.Article
	err := r.db.GetContext(ctx, &a, `
		SELECT identity, symbol, title, content, url, source,
		       published_at, published_missing, content_hash,
		       fetched_at, created_at, updated_at
		FROM articles WHERE identity = $1
	`, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Article{}, models.ErrArticleNotFound
	}
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}
