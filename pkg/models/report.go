package models

import "time"

// ReportEntry is a single article slot in a daily report
type ReportEntry struct {
	Article Article  `json:"article"`
	Summary *Summary `json:"summary,omitempty"`
	Pending bool     `json:"pending"`
}

// DailyReport aggregates all articles for one symbol on one calendar day.
// It is a pure projection of stored state: AggregateText carries no
// timestamps, so regenerating with unchanged inputs yields identical text.
// GeneratedAt is metadata about the call, never part of the text.
type DailyReport struct {
	GeneratedAt   time.Time     `json:"generated_at"`
	Date          time.Time     `json:"date"`
	Symbol        string        `json:"symbol"`
	AggregateText string        `json:"aggregate_text"`
	Entries       []ReportEntry `json:"entries"`
}

// Complete reports whether every entry has a current summary
func (r *DailyReport) Complete() bool {
	for _, e := range r.Entries {
		if e.Pending {
			return false
		}
	}
	return true
}

// IngestResult summarizes one pipeline run over a batch of raw articles
type IngestResult struct {
	Symbol     string        `json:"symbol"`
	Fetched    int           `json:"fetched"`
	New        int           `json:"new"`
	Updated    int           `json:"updated"`
	Duplicates int           `json:"duplicates"`
	Invalid    []IngestError `json:"invalid,omitempty"`
	Batch      *BatchResult  `json:"batch,omitempty"`
}

// BatchResult collects per-article summarization outcomes. Failures never
// abort a batch; callers inspect them to decide whether to re-run.
type BatchResult struct {
	Summarized []Summary     `json:"summarized"`
	Failures   []IngestError `json:"failures,omitempty"`
	Stale      int           `json:"stale"`
}

// IngestError ties a per-article error to the article it concerns
type IngestError struct {
	Identity string `json:"identity,omitempty"`
	URL      string `json:"url,omitempty"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}
