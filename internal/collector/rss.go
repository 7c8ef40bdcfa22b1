package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/news"
)

const fetchTimeout = 30 * time.Second

// RSS collects items from an RSS/Atom feed. The default instance in
// cmd/raven points at the Risky Business feed.
type RSS struct {
	name    string
	feedURL string
	maxAge  time.Duration
	parser  *gofeed.Parser
	logger  log.Logger
}

// NewRSS creates an RSS collector for one feed. Items older than
// maxAgeDays are dropped at collection time.
func NewRSS(name, feedURL string, maxAgeDays int, logger log.Logger) *RSS {
	if logger == nil {
		logger = log.Nop()
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}
	return &RSS{
		name:    name,
		feedURL: feedURL,
		maxAge:  time.Duration(maxAgeDays) * 24 * time.Hour,
		parser:  parser,
		logger:  logger,
	}
}

// Name returns the source identifier stamped on collected items.
func (c *RSS) Name() string { return c.name }

// Collect fetches and parses the feed, keeping entries within the age cutoff.
func (c *RSS) Collect(ctx context.Context) ([]*news.Item, error) {
	c.logger.Info(ctx, "fetching feed", "source", c.name, "url", c.feedURL)

	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", c.feedURL, err)
	}

	cutoff := time.Now().UTC().Add(-c.maxAge)
	items := make([]*news.Item, 0, len(feed.Items))

	for _, entry := range feed.Items {
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		if published == nil {
			c.logger.Warn(ctx, "feed entry has no parseable date", "source", c.name, "title", entry.Title)
			continue
		}
		if published.Before(cutoff) {
			continue
		}

		content := entry.Content
		if content == "" {
			content = entry.Description
		}

		it := &news.Item{
			Source:        c.name,
			Title:         entry.Title,
			Content:       content,
			URL:           entry.Link,
			PublishedDate: *published,
			Categories:    entry.Categories,
		}
		it.Normalize()
		items = append(items, it)
	}

	c.logger.Info(ctx, "feed collected",
		"source", c.name, "entries", len(feed.Items), "kept", len(items))
	return items, nil
}
