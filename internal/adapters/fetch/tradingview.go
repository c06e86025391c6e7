package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/adapters/config"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

const (
	tradingViewAPIURL  = "https://news-mediator.tradingview.com/news-flow/v1/news"
	tradingViewSiteURL = "https://www.tradingview.com"

	// The upstream paginates trading days from the cash open
	marketOpenHour   = 9
	marketOpenMinute = 30
)

// TradingView fetches per-symbol news from the TradingView news flow.
// The listing endpoint returns story metadata; the story body lives on
// the article page, embedded as init-data JSON with an HTML fallback.
type TradingView struct {
	client    *http.Client
	apiURL    string
	siteURL   string
	exchange  string
	userAgent string
	cookie    string
	enabled   bool
}

// NewTradingView creates new TradingView news provider
func NewTradingView(cfg *config.NewsConfig) *TradingView {
	return &TradingView{
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		apiURL:    tradingViewAPIURL,
		siteURL:   tradingViewSiteURL,
		exchange:  cfg.Exchange,
		userAgent: cfg.UserAgent,
		cookie:    cfg.Cookie,
		enabled:   true,
	}
}

func (t *TradingView) Name() string {
	return "tradingview"
}

func (t *TradingView) Enabled() bool {
	return t.enabled
}

// FetchNews lists stories for the symbol and fetches each story body.
// Per-story failures skip the story; listing failures fail the call.
func (t *TradingView) FetchNews(ctx context.Context, symbol string, target time.Time, windowDays int) ([]models.RawArticle, error) {
	items, err := t.listStories(ctx, symbol)
	if err != nil {
		return nil, err
	}

	start, end := t.window(target, windowDays)

	articles := make([]models.RawArticle, 0, len(items))
	for _, item := range items {
		published := time.Unix(item.Published, 0).UTC()
		if published.Before(start) || published.After(end) {
			continue
		}

		link := item.Link
		if link == "" {
			link = t.siteURL + item.StoryPath
		}
		if !strings.HasPrefix(link, t.siteURL) {
			continue
		}

		content, err := t.fetchStoryContent(ctx, link)
		if err != nil {
			logger.Warn("failed to fetch story, skipping",
				zap.String("title", item.Title),
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}

		related := make([]string, 0, len(item.RelatedSymbols))
		for _, rs := range item.RelatedSymbols {
			related = append(related, rs.Symbol)
		}

		articles = append(articles, models.RawArticle{
			Title:          item.Title,
			Content:        content,
			Source:         item.Source,
			URL:            link,
			PublishedAt:    published,
			RelatedSymbols: related,
		})
	}

	logger.Debug("fetched news window",
		zap.String("symbol", symbol),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("listed", len(items)),
		zap.Int("fetched", len(articles)),
	)

	return articles, nil
}

// window spans from the cash open on the target date; a zero-day window
// still covers the single trading day
func (t *TradingView) window(target time.Time, windowDays int) (time.Time, time.Time) {
	y, m, d := target.UTC().Date()
	start := time.Date(y, m, d, marketOpenHour, marketOpenMinute, 0, 0, time.UTC)

	days := windowDays
	if days < 1 {
		days = 1
	}
	return start, start.AddDate(0, 0, days)
}

type storyItem struct {
	Title          string `json:"title"`
	Source         string `json:"source"`
	Link           string `json:"link"`
	StoryPath      string `json:"storyPath"`
	Published      int64  `json:"published"`
	RelatedSymbols []struct {
		Symbol string `json:"symbol"`
	} `json:"relatedSymbols"`
}

func (t *TradingView) listStories(ctx context.Context, symbol string) ([]storyItem, error) {
	params := url.Values{}
	params.Add("filter", "lang:en")
	params.Add("filter", fmt.Sprintf("symbol:%s:%s", t.exchange, symbol))
	params.Set("streaming", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	t.setHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("news listing returned status %d: %w", resp.StatusCode, models.ErrAuthExpired)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news listing returned status %d", resp.StatusCode)
	}

	var payload struct {
		Items []storyItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode news listing: %w", err)
	}

	return payload.Items, nil
}

func (t *TradingView) fetchStoryContent(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	t.setHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("story request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("story returned status %d: %w", resp.StatusCode, models.ErrAuthExpired)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("story returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse story html: %w", err)
	}

	return extractStoryBody(doc)
}

func (t *TradingView) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", t.userAgent)
	if t.cookie != "" {
		req.Header.Set("Cookie", t.cookie)
	}
}

// extractStoryBody pulls the article text out of a story page. Preferred
// path is the embedded init-data JSON (paragraph AST); when that is
// absent or malformed it falls back to plain HTML tag parsing.
func extractStoryBody(doc *goquery.Document) (string, error) {
	if body, ok := extractFromInitData(doc); ok {
		return body, nil
	}

	paragraphs := make([]string, 0)
	doc.Find(`div[class*="body-"] p`).Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return "", fmt.Errorf("no readable content found on story page")
	}
	return strings.Join(paragraphs, "\n"), nil
}

type astNode struct {
	Type     string            `json:"type"`
	Children []json.RawMessage `json:"children"`
}

type initDataEntry struct {
	Story *struct {
		Title          string `json:"title"`
		AstDescription *struct {
			Children []astNode `json:"children"`
		} `json:"astDescription"`
	} `json:"story"`
}

func extractFromInitData(doc *goquery.Document) (string, bool) {
	var body string
	var found bool

	doc.Find(`script[type="application/prs.init-data+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var data map[string]initDataEntry
		if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
			return true // malformed script block, try the next one
		}

		for _, entry := range data {
			if entry.Story == nil || entry.Story.AstDescription == nil {
				continue
			}

			paragraphs := make([]string, 0, len(entry.Story.AstDescription.Children))
			for _, node := range entry.Story.AstDescription.Children {
				if node.Type != "p" {
					continue
				}
				var sb strings.Builder
				for _, child := range node.Children {
					var text string
					if err := json.Unmarshal(child, &text); err == nil {
						sb.WriteString(text)
					}
				}
				if sb.Len() > 0 {
					paragraphs = append(paragraphs, sb.String())
				}
			}

			if len(paragraphs) > 0 {
				body = strings.Join(paragraphs, "\n")
				found = true
				return false
			}
		}
		return true
	})

	return body, found
}
