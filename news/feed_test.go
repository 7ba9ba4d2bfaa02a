package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/models"
)

func rssBody(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>search</title>` + items + `</channel></rss>`
}

func TestFetchDeduplicatesAcrossQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody(`
			<item><title>Bartz v. Anthropic: new filing</title><link>https://example.com/a</link>
				<pubDate>`+time.Now().Format(time.RFC1123Z)+`</pubDate></item>
			<item><title>Bartz v. Anthropic: new filing</title><link>https://example.com/a</link>
				<pubDate>`+time.Now().Format(time.RFC1123Z)+`</pubDate></item>`))
	}))
	defer srv.Close()

	s := NewFeedSource(config.NewsFeedConfig{
		FeedURL: srv.URL,
		Queries: []string{"anthropic lawsuit", "ai training lawsuit"},
		Timeout: 5 * time.Second,
	})

	sigs, err := s.Fetch(context.Background(), 3)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("expected 1 deduplicated signal, got %d", len(sigs))
	}
	if sigs[0].Kind != models.SignalNewsItem || sigs[0].URL != "https://example.com/a" {
		t.Fatalf("unexpected signal %+v", sigs[0])
	}
}

func TestFetchDropsStaleItems(t *testing.T) {
	old := time.Now().AddDate(0, 0, -10).Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(`
			<item><title>Week-old coverage</title><link>https://example.com/old</link>
				<pubDate>`+old+`</pubDate></item>
			<item><title>Fresh coverage</title><link>https://example.com/new</link>
				<pubDate>`+time.Now().Format(time.RFC1123Z)+`</pubDate></item>`))
	}))
	defer srv.Close()

	s := NewFeedSource(config.NewsFeedConfig{
		FeedURL: srv.URL,
		Queries: []string{"q"},
		Timeout: 5 * time.Second,
	})

	sigs, err := s.Fetch(context.Background(), 3)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(sigs) != 1 || sigs[0].URL != "https://example.com/new" {
		t.Fatalf("lookback filter not applied: %+v", sigs)
	}
}

func TestFetchAllQueriesDownIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewFeedSource(config.NewsFeedConfig{
		FeedURL: srv.URL,
		Queries: []string{"q1", "q2"},
		Timeout: 2 * time.Second,
	})

	if _, err := s.Fetch(context.Background(), 3); err == nil {
		t.Fatal("expected error when every query fails")
	}
}

func TestSniffDocketNumberFromArticle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>t</title></head><body><article><p>
			The complaint, case 3:24-cv-05417, was filed in federal court. The suit accuses
			the company of training on pirated books and seeks statutory damages for each work.
		</p></article></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewFeedSource(config.NewsFeedConfig{FeedURL: srv.URL, Timeout: 5 * time.Second})
	got := s.sniffDocketNumber(context.Background(), srv.URL+"/article")
	if got != "3:24-cv-05417" {
		t.Fatalf("sniffDocketNumber = %q, want 3:24-cv-05417", got)
	}
}
