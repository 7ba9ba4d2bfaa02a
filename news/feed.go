package news

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/httpx"
	"github.com/docketwatch/docketwatch/internal/resolve"
	"github.com/docketwatch/docketwatch/models"
)

const maxArticleBytes = 1 << 20

// FeedSource pulls lawsuit coverage from an RSS search feed, one fetch
// per configured query. Items become news signals; when article fetching
// is enabled the page text is sniffed for a docket number, which upgrades
// the signal to the exact-lookup path.
type FeedSource struct {
	cfg    config.NewsFeedConfig
	parser *gofeed.Parser
	http   *httpx.Client
	logger *log.Logger
	nowFn  func() time.Time
}

func NewFeedSource(cfg config.NewsFeedConfig) *FeedSource {
	cfg = cfg.Normalize()
	parser := gofeed.NewParser()
	parser.UserAgent = "docketwatch/1.0"
	return &FeedSource{
		cfg:    cfg,
		parser: parser,
		http:   httpx.NewClient(cfg.Timeout, 1, 500*time.Millisecond),
		logger: log.New(log.Writer(), "[NEWS] ", log.LstdFlags),
		nowFn:  time.Now,
	}
}

// Fetch runs every configured query and returns deduplicated signals
// published within the lookback window. A query whose feed is down is
// logged and skipped; the other queries still contribute.
func (s *FeedSource) Fetch(ctx context.Context, lookbackDays int) ([]models.RawSignal, error) {
	cutoff := s.nowFn().AddDate(0, 0, -lookbackDays)

	seen := make(map[string]bool)
	var out []models.RawSignal
	var failed int
	for _, q := range s.cfg.Queries {
		feed, err := s.parser.ParseURLWithContext(s.queryURL(q), ctx)
		if err != nil {
			s.logger.Printf("feed query %q: %v", q, err)
			failed++
			continue
		}
		for _, item := range feed.Items {
			if item.Link == "" || seen[item.Link] {
				continue
			}
			published := time.Time{}
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}
			if !published.IsZero() && published.Before(cutoff) {
				continue
			}
			seen[item.Link] = true

			sig := models.RawSignal{
				Kind:        models.SignalNewsItem,
				Title:       item.Title,
				URL:         item.Link,
				PublishedAt: published,
			}
			if s.cfg.FetchArticle {
				if num := s.sniffDocketNumber(ctx, item.Link); num != "" {
					sig.DocketNumber = num
				}
			}
			out = append(out, sig)
		}
	}
	if failed == len(s.cfg.Queries) && failed > 0 {
		return nil, fmt.Errorf("all %d feed queries failed: %w", failed, models.ErrTransient)
	}
	return out, nil
}

func (s *FeedSource) queryURL(query string) string {
	return fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", s.cfg.FeedURL, url.QueryEscape(query))
}

// sniffDocketNumber fetches the article page and scans its readable text
// for a court docket number. Fetch or parse failure just leaves the
// signal on the headline path.
func (s *FeedSource) sniffDocketNumber(ctx context.Context, link string) string {
	raw, err := s.http.GetBytes(ctx, link, map[string]string{"User-Agent": "Mozilla/5.0"}, maxArticleBytes)
	if err != nil {
		s.logger.Printf("article fetch %s: %v", link, err)
		return ""
	}
	pageURL, err := url.Parse(link)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return ""
	}
	text := article.TextContent
	if len(text) > 20000 {
		text = text[:20000]
	}
	return resolve.FindDocketNumber(text)
}
