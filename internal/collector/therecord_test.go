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

func recordIndex(entries string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"latestNewsItems":[%s]}}}
</script>
</head><body></body></html>`, entries)
}

func recordEntry(title, date, slug string) string {
	return fmt.Sprintf(`{"attributes":{"title":%q,"date":%q,"page":{"data":{"attributes":{"slug":%q}}}}}`,
		title, date, slug)
}

func recordArticle(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body><div class="article__content"><p>%s</p></body></html>`, body)
}

func TestTheRecordCollect(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	fresh := now.Add(-24 * time.Hour).Format(time.RFC3339)
	stale := now.Add(-30 * 24 * time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, recordIndex(
			recordEntry("Ransomware hits registry", fresh, "/news/cybercrime/ransomware-hits-registry")+","+
				recordEntry("Old advisory", stale, "/news/old-advisory"),
		))
	})
	mux.HandleFunc("/news/cybercrime/ransomware-hits-registry", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, recordArticle("A registry   was hit\n by ransomware."))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTheRecord(srv.URL, 7, log.Nop())
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("len = %d, want 1 (stale article filtered)", len(items))
	}
	it := items[0]
	if it.Source != TheRecordSource {
		t.Errorf("source = %q", it.Source)
	}
	if it.Title != "Ransomware hits registry" {
		t.Errorf("title = %q", it.Title)
	}
	if it.URL != srv.URL+"/news/cybercrime/ransomware-hits-registry" {
		t.Errorf("url = %q", it.URL)
	}
	if it.Content != "A registry was hit by ransomware." {
		t.Errorf("content = %q, want whitespace collapsed", it.Content)
	}
	if len(it.Categories) != 2 || it.Categories[0] != "cybercrime" || it.Categories[1] != "ransomware-hits-registry" {
		t.Errorf("categories = %v", it.Categories)
	}
}

func TestTheRecordCollect_WysiwygFallback(t *testing.T) {
	t.Parallel()

	fresh := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, recordIndex(recordEntry("Legacy layout", fresh, "/news/legacy-layout")))
	})
	mux.HandleFunc("/news/legacy-layout", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div class="wysiwyg">Legacy body text.</div></body></html>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTheRecord(srv.URL, 7, log.Nop())
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 1 || items[0].Content != "Legacy body text." {
		t.Fatalf("items = %v, want wysiwyg fallback content", len(items))
	}
}

func TestTheRecordCollect_ArticleFailureSkipped(t *testing.T) {
	t.Parallel()

	fresh := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, recordIndex(
			recordEntry("Broken article", fresh, "/news/broken")+","+
				recordEntry("Working article", fresh, "/news/working"),
		))
	})
	mux.HandleFunc("/news/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/news/working", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, recordArticle("Still works."))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTheRecord(srv.URL, 7, log.Nop())
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Working article" {
		t.Fatalf("len = %d, want only the fetchable article", len(items))
	}
}

func TestTheRecordCollect_NoPayload(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>plain page</body></html>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTheRecord(srv.URL, 7, log.Nop())
	if _, err := c.Collect(context.Background()); err == nil {
		t.Fatal("Collect succeeded without a __NEXT_DATA__ payload")
	}
}
