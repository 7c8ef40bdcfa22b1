package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/news"
)

// TheRecordSource is the source identifier for The Record collector.
const TheRecordSource = "The Record Media"

const recordUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// TheRecord scrapes therecord.media. The listing page is a Next.js app,
// so the article index comes from the embedded __NEXT_DATA__ JSON blob
// rather than the rendered markup.
type TheRecord struct {
	baseURL string
	maxAge  time.Duration
	client  *http.Client
	logger  log.Logger
}

// NewTheRecord creates a collector for The Record. baseURL is the site
// root without a trailing slash ("https://therecord.media" in production).
func NewTheRecord(baseURL string, maxAgeDays int, logger log.Logger) *TheRecord {
	if logger == nil {
		logger = log.Nop()
	}
	return &TheRecord{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxAge:  time.Duration(maxAgeDays) * 24 * time.Hour,
		client:  &http.Client{Timeout: fetchTimeout},
		logger:  logger,
	}
}

// Name returns the source identifier stamped on collected items.
func (c *TheRecord) Name() string { return TheRecordSource }

// nextData is the subset of the Next.js page payload we consume.
type nextData struct {
	Props struct {
		PageProps struct {
			LatestNewsItems []struct {
				Attributes struct {
					Title string `json:"title"`
					Date  string `json:"date"`
					Page  struct {
						Data struct {
							Attributes struct {
								Slug string `json:"slug"`
							} `json:"attributes"`
						} `json:"data"`
					} `json:"page"`
				} `json:"attributes"`
			} `json:"latestNewsItems"`
		} `json:"pageProps"`
	} `json:"props"`
}

// Collect fetches the news index and then each article body. A failure
// on one article is logged and skipped; only an unusable index page is
// an error.
func (c *TheRecord) Collect(ctx context.Context) ([]*news.Item, error) {
	indexURL := c.baseURL + "/news"
	c.logger.Info(ctx, "fetching news index", "source", TheRecordSource, "url", indexURL)

	doc, err := c.fetchDocument(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, fmt.Errorf("no __NEXT_DATA__ payload at %s", indexURL)
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parse __NEXT_DATA__: %w", err)
	}

	entries := data.Props.PageProps.LatestNewsItems
	items := make([]*news.Item, 0, len(entries))

	for _, entry := range entries {
		attrs := entry.Attributes

		published, err := time.Parse(time.RFC3339, attrs.Date)
		if err != nil {
			c.logger.Warn(ctx, "unparseable article date",
				"source", TheRecordSource, "title", attrs.Title, "date", attrs.Date)
			continue
		}
		if time.Since(published) > c.maxAge {
			continue
		}

		slug := attrs.Page.Data.Attributes.Slug
		if slug == "" {
			c.logger.Warn(ctx, "article missing slug", "source", TheRecordSource, "title", attrs.Title)
			continue
		}

		articleURL := c.baseURL + slug
		content, err := c.fetchArticle(ctx, articleURL)
		if err != nil {
			c.logger.Error(ctx, err, "failed to fetch article",
				"source", TheRecordSource, "url", articleURL)
			continue
		}

		var categories []string
		for _, part := range strings.Split(slug, "/") {
			if part != "" && part != "news" {
				categories = append(categories, part)
			}
		}

		it := &news.Item{
			Source:        TheRecordSource,
			Title:         attrs.Title,
			Content:       content,
			URL:           articleURL,
			PublishedDate: published,
			Categories:    categories,
		}
		it.Normalize()
		items = append(items, it)
	}

	c.logger.Info(ctx, "articles collected",
		"source", TheRecordSource, "listed", len(entries), "kept", len(items))
	return items, nil
}

func (c *TheRecord) fetchArticle(ctx context.Context, url string) (string, error) {
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	sel := doc.Find("div.article__content")
	if sel.Length() == 0 {
		sel = doc.Find("div.wysiwyg")
	}
	// Collapse markup whitespace into single spaces.
	return strings.Join(strings.Fields(sel.Text()), " "), nil
}

func (c *TheRecord) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", recordUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
