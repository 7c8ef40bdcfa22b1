package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

func rssFeed(entries string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Risky Business</title>
    <link>https://risky.biz</link>
    <description>Security news</description>
%s
  </channel>
</rss>`, entries)
}

func rssEntry(title, link string, published time.Time, description string) string {
	return fmt.Sprintf(`    <item>
      <title>%s</title>
      <link>%s</link>
      <pubDate>%s</pubDate>
      <description>%s</description>
      <category>news</category>
    </item>
`, title, link, published.Format(time.RFC1123Z), description)
}

func TestRSSCollect(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	feed := rssFeed(
		rssEntry("Fresh episode", "https://risky.biz/fresh", now.Add(-24*time.Hour), "A fresh story.") +
			rssEntry("Stale episode", "https://risky.biz/stale", now.Add(-30*24*time.Hour), "An old story."),
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	c := NewRSS("risky.biz", srv.URL, 7, log.Nop())
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("len = %d, want 1 (stale entry filtered)", len(items))
	}
	it := items[0]
	if it.Source != "risky.biz" {
		t.Errorf("source = %q", it.Source)
	}
	if it.Title != "Fresh episode" {
		t.Errorf("title = %q", it.Title)
	}
	if it.URL != "https://risky.biz/fresh" {
		t.Errorf("url = %q", it.URL)
	}
	if it.Content != "A fresh story." {
		t.Errorf("content = %q, want description fallback", it.Content)
	}
	if len(it.Categories) != 1 || it.Categories[0] != "news" {
		t.Errorf("categories = %v", it.Categories)
	}
	if it.PublishedDate.Location() != time.UTC {
		t.Error("date not normalized to UTC")
	}
}

func TestRSSCollect_EntryWithoutDateSkipped(t *testing.T) {
	t.Parallel()

	feed := rssFeed(`    <item>
      <title>No date</title>
      <link>https://risky.biz/undated</link>
      <description>Undated story.</description>
    </item>
`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	c := NewRSS("risky.biz", srv.URL, 7, log.Nop())
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestRSSCollect_FeedUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewRSS("risky.biz", srv.URL, 7, log.Nop())
	if _, err := c.Collect(context.Background()); err == nil {
		t.Fatal("Collect succeeded against a 503 feed")
	}
}
