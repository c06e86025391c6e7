package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewArticle(t *testing.T) {
	fetchedAt := time.Date(2025, 8, 8, 15, 4, 5, 0, time.UTC)
	raw := RawArticle{
		Title:       "Alphabet Beats Estimates",
		Content:     "Alphabet reported strong quarterly earnings.",
		Source:      "Reuters",
		URL:         "https://www.tradingview.com/news/googl-1/",
		PublishedAt: time.Date(2025, 8, 8, 10, 0, 12, 0, time.UTC),
	}

	t.Run("valid article gets identity and hash", func(t *testing.T) {
		a, err := NewArticle("GOOGL", raw, fetchedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Identity == "" || a.ContentHash == "" {
			t.Error("expected identity and content hash to be set")
		}
		if a.PublishedMissing {
			t.Error("article with publish time should not be flagged")
		}
		if a.ContentHash != HashContent(raw.Content) {
			t.Error("content hash mismatch")
		}
	})

	t.Run("identity stable within the same minute", func(t *testing.T) {
		a1, _ := NewArticle("GOOGL", raw, fetchedAt)

		shifted := raw
		shifted.PublishedAt = raw.PublishedAt.Add(30 * time.Second)
		a2, _ := NewArticle("GOOGL", shifted, fetchedAt)

		if a1.Identity != a2.Identity {
			t.Error("seconds within the same minute must not change identity")
		}

		nextMinute := raw
		nextMinute.PublishedAt = raw.PublishedAt.Add(time.Minute)
		a3, _ := NewArticle("GOOGL", nextMinute, fetchedAt)
		if a1.Identity == a3.Identity {
			t.Error("different publish minute must change identity")
		}
	})

	t.Run("identity differs across symbols and urls", func(t *testing.T) {
		a1, _ := NewArticle("GOOGL", raw, fetchedAt)
		a2, _ := NewArticle("AAPL", raw, fetchedAt)
		if a1.Identity == a2.Identity {
			t.Error("different symbols must produce different identities")
		}

		other := raw
		other.URL = "https://www.tradingview.com/news/googl-2/"
		a3, _ := NewArticle("GOOGL", other, fetchedAt)
		if a1.Identity == a3.Identity {
			t.Error("different urls must produce different identities")
		}
	})

	t.Run("missing publish time falls back to fetch day", func(t *testing.T) {
		undated := raw
		undated.PublishedAt = time.Time{}

		a, err := NewArticle("GOOGL", undated, fetchedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !a.PublishedMissing {
			t.Error("undated article must be flagged")
		}
		want := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)
		if !a.PublishedAt.Equal(want) {
			t.Errorf("expected fetch-day bucket %v, got %v", want, a.PublishedAt)
		}
	})

	t.Run("missing required fields fail fast", func(t *testing.T) {
		cases := map[string]RawArticle{
			"title":   {Content: "c", URL: "https://x/1"},
			"content": {Title: "t", URL: "https://x/1"},
			"url":     {Title: "t", Content: "c"},
		}

		for field, bad := range cases {
			_, err := NewArticle("GOOGL", bad, fetchedAt)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("%s: expected ValidationError, got %v", field, err)
				continue
			}
			if verr.Field != field {
				t.Errorf("expected field %q in error, got %q", field, verr.Field)
			}
		}

		if _, err := NewArticle("", raw, fetchedAt); err == nil {
			t.Error("empty symbol must fail validation")
		}
	})
}

func TestRetryable(t *testing.T) {
	if !Retryable(ErrSummarizeTimeout) || !Retryable(ErrRateLimited) {
		t.Error("timeout and rate limit are transient")
	}
	if Retryable(ErrUnsupportedInput) || Retryable(errors.New("boom")) {
		t.Error("unsupported input and unknown errors are not transient")
	}
}
