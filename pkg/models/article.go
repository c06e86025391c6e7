package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// RawArticle is a scraped news record before validation.
// Field shapes match what the fetch layer extracts from the source.
type RawArticle struct {
	PublishedAt    time.Time `json:"published_at"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Source         string    `json:"source"`
	URL            string    `json:"url"`
	RelatedSymbols []string  `json:"related_symbols,omitempty"`
}

// Article is a validated, identity-keyed news article
type Article struct {
	PublishedAt      time.Time `json:"published_at" db:"published_at"`
	FetchedAt        time.Time `json:"fetched_at" db:"fetched_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	Identity         string    `json:"identity" db:"identity"`
	Symbol           string    `json:"symbol" db:"symbol"`
	Title            string    `json:"title" db:"title"`
	Content          string    `json:"content" db:"content"`
	URL              string    `json:"url" db:"url"`
	Source           string    `json:"source" db:"source"`
	ContentHash      string    `json:"content_hash" db:"content_hash"`
	PublishedMissing bool      `json:"published_missing" db:"published_missing"`
}

// Summary is the LLM-generated digest of a single article.
// ContentHash records which revision of the article body it was computed
// from; a summary whose hash no longer matches the article is stale.
type Summary struct {
	GeneratedAt     time.Time `json:"generated_at" db:"generated_at"`
	ArticleIdentity string    `json:"article_identity" db:"article_identity"`
	ContentHash     string    `json:"content_hash" db:"content_hash"`
	Text            string    `json:"text" db:"summary"`
	Model           string    `json:"model" db:"model"`
}

// StoredArticle pairs an article with its current summary, if any.
// Summary is nil while summarization is pending or after the body changed.
type StoredArticle struct {
	Article Article  `json:"article"`
	Summary *Summary `json:"summary,omitempty"`
}

// ValidationError reports a raw article that cannot be ingested
type ValidationError struct {
	Field string
	URL   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid article (url=%q): missing %s", e.URL, e.Field)
}

// NewArticle validates a raw record and derives its identity key and
// content hash. Articles without a publish timestamp are keyed on the
// fetch day and flagged so reports can caveat them.
func NewArticle(symbol string, raw RawArticle, fetchedAt time.Time) (Article, error) {
	if strings.TrimSpace(symbol) == "" {
		return Article{}, &ValidationError{Field: "symbol", URL: raw.URL}
	}
	if strings.TrimSpace(raw.URL) == "" {
		return Article{}, &ValidationError{Field: "url", URL: raw.URL}
	}
	if strings.TrimSpace(raw.Title) == "" {
		return Article{}, &ValidationError{Field: "title", URL: raw.URL}
	}
	if strings.TrimSpace(raw.Content) == "" {
		return Article{}, &ValidationError{Field: "content", URL: raw.URL}
	}

	published := raw.PublishedAt.UTC()
	missing := raw.PublishedAt.IsZero()
	if missing {
		y, m, d := fetchedAt.UTC().Date()
		published = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return Article{
		Identity:         identityKey(symbol, raw.URL, published),
		Symbol:           symbol,
		Title:            raw.Title,
		Content:          raw.Content,
		URL:              raw.URL,
		Source:           raw.Source,
		PublishedAt:      published,
		PublishedMissing: missing,
		ContentHash:      HashContent(raw.Content),
		FetchedAt:        fetchedAt.UTC(),
	}, nil
}

// identityKey builds the stable article key: symbol + source URL +
// publish time truncated to the minute
func identityKey(symbol, url string, published time.Time) string {
	minute := published.Truncate(time.Minute).Format(time.RFC3339)
	h := sha256.Sum256([]byte(symbol + "|" + url + "|" + minute))
	return hex.EncodeToString(h[:])
}

// HashContent hashes an article body for edit detection
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
