package models

import "errors"

// Error taxonomy shared by the adapters and the pipeline. Callers match
// with errors.Is; adapters wrap these with request context.
var (
	// ErrAuthExpired means the upstream session cookie is no longer
	// accepted. Surfaced to the operator, never retried automatically.
	ErrAuthExpired = errors.New("upstream authentication expired")

	// ErrSummarizeTimeout marks a transient summarization timeout (retryable)
	ErrSummarizeTimeout = errors.New("summarization timed out")

	// ErrRateLimited marks an upstream 429 (retryable with backoff)
	ErrRateLimited = errors.New("summarization rate limited")

	// ErrUnsupportedInput marks content the summarizer cannot process
	// (empty body and the like). Never retried.
	ErrUnsupportedInput = errors.New("unsupported summarization input")

	// ErrArticleNotFound is returned when attaching a summary to an
	// article that no longer exists
	ErrArticleNotFound = errors.New("article not found")

	// ErrStaleSummary is the store's stale-write guard: the article body
	// changed after this summary was requested. Treated as "someone else
	// already advanced this article" and dropped, not surfaced.
	ErrStaleSummary = errors.New("summary is stale for current article content")
)

// Retryable reports whether a summarization failure is transient
func Retryable(err error) bool {
	return errors.Is(err, ErrSummarizeTimeout) || errors.Is(err, ErrRateLimited)
}
