package news

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// openTestDB connects to the database named by TEST_DATABASE_DSN and
// clears the article tables. Tests are skipped when the variable is
// unset, so the suite runs green without a local Postgres.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping repository integration test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`TRUNCATE summaries, articles`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return db
}

func buildArticle(t *testing.T, url, content string, published time.Time) models.Article {
	t.Helper()
	a, err := models.NewArticle("GOOGL", models.RawArticle{
		Title:       "Title",
		Content:     content,
		Source:      "Reuters",
		URL:         url,
		PublishedAt: published,
	}, published.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to build article: %v", err)
	}
	return a
}

func TestRepositoryLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	published := time.Date(2025, 8, 8, 10, 0, 0, 0, time.UTC)
	article := buildArticle(t, "https://www.tradingview.com/news/googl-1/", "original body", published)

	t.Run("insert then read state", func(t *testing.T) {
		if _, err := repo.UpsertArticle(ctx, article, models.ClassNew); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		hash, found, err := repo.GetArticleState(ctx, article.Identity)
		if err != nil || !found {
			t.Fatalf("expected stored article, got found=%v err=%v", found, err)
		}
		if hash != article.ContentHash {
			t.Errorf("content hash mismatch: %s", hash)
		}
	})

	t.Run("summary attach and day query", func(t *testing.T) {
		summary := models.Summary{
			ArticleIdentity: article.Identity,
			ContentHash:     article.ContentHash,
			Text:            "Summary: original.",
			Model:           "gpt-4o-mini",
			GeneratedAt:     published.Add(2 * time.Hour),
		}
		if err := repo.AttachSummary(ctx, summary); err != nil {
			t.Fatalf("attach failed: %v", err)
		}

		stored, err := repo.QueryBySymbolDate(ctx, "GOOGL", published)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(stored) != 1 || stored[0].Summary == nil {
			t.Fatalf("expected 1 summarized article, got %+v", stored)
		}
		if stored[0].Summary.Text != summary.Text {
			t.Errorf("summary text mismatch: %q", stored[0].Summary.Text)
		}
	})

	t.Run("update invalidates summary", func(t *testing.T) {
		edited := buildArticle(t, article.URL, "edited body", published)
		if _, err := repo.UpsertArticle(ctx, edited, models.ClassUpdated); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		stored, err := repo.QueryBySymbolDate(ctx, "GOOGL", published)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(stored) != 1 || stored[0].Summary != nil {
			t.Fatal("edited article must read as pending again")
		}
	})

	t.Run("stale summary rejected", func(t *testing.T) {
		stale := models.Summary{
			ArticleIdentity: article.Identity,
			ContentHash:     article.ContentHash, // hash of the original body
			Text:            "Summary: outdated.",
			Model:           "gpt-4o-mini",
			GeneratedAt:     published.Add(3 * time.Hour),
		}
		if err := repo.AttachSummary(ctx, stale); !errors.Is(err, models.ErrStaleSummary) {
			t.Errorf("expected stale rejection, got %v", err)
		}
	})

	t.Run("unknown article not found", func(t *testing.T) {
		missing := models.Summary{
			ArticleIdentity: "deadbeef",
			ContentHash:     "cafe",
			Text:            "x",
			Model:           "m",
			GeneratedAt:     published,
		}
		if err := repo.AttachSummary(ctx, missing); !errors.Is(err, models.ErrArticleNotFound) {
			t.Errorf("expected not-found, got %v", err)
		}
	})

	t.Run("duplicate upsert is a no-op", func(t *testing.T) {
		before, err := repo.QueryBySymbolDate(ctx, "GOOGL", published)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}

		if _, err := repo.UpsertArticle(ctx, article, models.ClassDuplicate); err != nil {
			t.Fatalf("duplicate upsert failed: %v", err)
		}

		after, err := repo.QueryBySymbolDate(ctx, "GOOGL", published)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(before) != len(after) || !after[0].Article.UpdatedAt.Equal(before[0].Article.UpdatedAt) {
			t.Error("duplicate classification must not touch the row")
		}
	})
}
