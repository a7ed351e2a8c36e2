package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"

	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

const (
	yahooFeedURLFormat = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	finvizQuoteURL     = "https://finviz.com/quote.ashx?t=%s"

	newsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// NewsRepository aggregates recent headlines for a symbol from the Yahoo
// Finance RSS feed and the Finviz quote page.
type NewsRepository interface {
	GetNews(ctx context.Context, symbol string) ([]entity.NewsArticle, error)
}

type newsRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
	feedParser *gofeed.Parser
}

// NewNewsRepository creates a news aggregator.
func NewNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &newsRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.News.RequestTimeout,
		},
		feedParser: gofeed.NewParser(),
	}
}

// GetNews merges both sources, deduplicates by (headline, source), sorts
// newest first and truncates to the configured limit. A source failing is
// a warning, not an error; only both failing yields an empty list.
func (r *newsRepository) GetNews(ctx context.Context, symbol string) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle

	rssItems, err := r.fetchYahooFeed(ctx, symbol)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to fetch Yahoo news feed", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	articles = append(articles, rssItems...)

	finvizItems, err := r.fetchFinvizNews(ctx, symbol)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to scrape Finviz news", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	articles = append(articles, finvizItems...)

	articles = dedupeArticles(articles)
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > r.cfg.News.MaxArticles {
		articles = articles[:r.cfg.News.MaxArticles]
	}

	if r.cfg.News.FetchContent {
		r.enrichContent(ctx, articles)
	}

	return articles, nil
}

func (r *newsRepository) fetchYahooFeed(ctx context.Context, symbol string) ([]entity.NewsArticle, error) {
	feed, err := r.feedParser.ParseURLWithContext(fmt.Sprintf(yahooFeedURLFormat, symbol), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	var out []entity.NewsArticle
	for _, item := range feed.Items {
		article := entity.NewsArticle{
			Headline: strings.TrimSpace(item.Title),
			Source:   "Yahoo Finance",
			Link:     item.Link,
			Summary:  strings.TrimSpace(item.Description),
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		}
		if article.Headline == "" {
			continue
		}
		out = append(out, article)
	}
	return out, nil
}

func (r *newsRepository) fetchFinvizNews(ctx context.Context, symbol string) ([]entity.NewsArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(finvizQuoteURL, symbol), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", newsUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status %d from finviz", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse finviz page: %w", err)
	}

	var out []entity.NewsArticle
	doc.Find("#news-table tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a").First()
		headline := strings.TrimSpace(link.Text())
		if headline == "" {
			return
		}
		href, _ := link.Attr("href")
		out = append(out, entity.NewsArticle{
			Headline:    headline,
			Source:      "Finviz",
			Link:        href,
			PublishedAt: parseFinvizTime(strings.TrimSpace(row.Find("td").First().Text())),
		})
	})

	return out, nil
}

// parseFinvizTime handles the two cell formats Finviz uses: a full
// "Jan-02-06 03:04PM" on the first row of a day, a bare time after.
func parseFinvizTime(s string) time.Time {
	if t, err := time.Parse("Jan-02-06 03:04PM", s); err == nil {
		return t
	}
	if t, err := time.Parse("03:04PM", s); err == nil {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
	}
	return time.Time{}
}

// enrichContent replaces thin summaries with readable article body text.
// Best effort only.
func (r *newsRepository) enrichContent(ctx context.Context, articles []entity.NewsArticle) {
	for i := range articles {
		if articles[i].Summary != "" || articles[i].Link == "" {
			continue
		}
		body, err := r.extractArticleText(ctx, articles[i].Link)
		if err != nil {
			r.log.DebugContext(ctx, "Failed to extract article content", logger.ErrorField(err), logger.StringField("link", articles[i].Link))
			continue
		}
		articles[i].Summary = body
	}
}

func (r *newsRepository) extractArticleText(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", newsUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status %d", resp.StatusCode)
	}

	raw := new(strings.Builder)
	if _, err := copyBounded(raw, resp); err != nil {
		return "", err
	}

	doc, err := readability.NewDocument(raw.String())
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content()))
	if err != nil {
		return "", err
	}
	text := strings.Join(strings.Fields(content.Text()), " ")

	const maxSummary = 500
	if len(text) > maxSummary {
		text = text[:maxSummary] + "…"
	}
	return text, nil
}

// copyBounded caps article downloads at 1 MiB.
func copyBounded(dst *strings.Builder, resp *http.Response) (int64, error) {
	return io.Copy(dst, io.LimitReader(resp.Body, 1<<20))
}

func dedupeArticles(articles []entity.NewsArticle) []entity.NewsArticle {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		key := a.Headline + "|" + a.Source
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
