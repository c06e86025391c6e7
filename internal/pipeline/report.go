package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/selivandex/newsdigest/pkg/models"
)

const pendingPlaceholder = "[pending summarization]"

// BuildDailyReport assembles a daily report from stored state. Pure
// assembly: no LLM call, no reordering beyond the store's deterministic
// ordering, no timestamps in the text. Regenerating from unchanged
// inputs yields byte-identical aggregate text.
func BuildDailyReport(symbol string, day time.Time, stored []models.StoredArticle) *models.DailyReport {
	y, m, d := day.UTC().Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dateStr := date.Format("2006-01-02")

	report := &models.DailyReport{
		Symbol:  symbol,
		Date:    date,
		Entries: make([]models.ReportEntry, 0, len(stored)),
	}

	if len(stored) == 0 {
		report.AggregateText = fmt.Sprintf("No news summaries found for %s (%s).", dateStr, symbol)
		return report
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily News Report: %s %s\n\n", symbol, dateStr)

	for i, item := range stored {
		entry := models.ReportEntry{
			Article: item.Article,
			Summary: item.Summary,
			Pending: item.Summary == nil,
		}
		report.Entries = append(report.Entries, entry)

		fmt.Fprintf(&sb, "%d. %s\n", i+1, item.Article.Title)
		if entry.Pending {
			fmt.Fprintf(&sb, "   Summary: %s\n", pendingPlaceholder)
		} else {
			fmt.Fprintf(&sb, "   Summary: %s\n", item.Summary.Text)
		}
		if item.Article.PublishedMissing {
			sb.WriteString("   Note: publish time unknown, bucketed by fetch day\n")
		}
	}

	report.AggregateText = sb.String()
	return report
}
