package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
)

const newsSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url>
    <loc>https://news.example/older</loc>
    <news:news>
      <news:publication_date>2026-10-18T10:00:00+05:30</news:publication_date>
      <news:title>Older story</news:title>
    </news:news>
  </url>
  <url>
    <loc>https://news.example/undated</loc>
    <news:news><news:title>Undated story</news:title></news:news>
  </url>
  <url>
    <loc>https://news.example/newer</loc>
    <news:news>
      <news:publication_date>2026-10-19T10:00:00+05:30</news:publication_date>
      <news:title>Newer story</news:title>
    </news:news>
  </url>
</urlset>`

func TestGoogleNewsFetcherFollowsIndex(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/news.xml</loc></sitemap><sitemap><loc>%s/index.xml</loc></sitemap></sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/news.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, newsSitemap)
	})

	f := NewGoogleNewsFetcher(httpclient.NewRestyClient(time.Second))
	feed, err := f.Fetch(context.Background(), Provider{ID: "ndtv", Type: ProviderTypeGoogleNews, SourceURL: srv.URL + "/index.xml"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if feed.Title != "ndtv" {
		t.Fatalf("title = %q", feed.Title)
	}
	want := []string{"https://news.example/newer", "https://news.example/older", "https://news.example/undated"}
	if len(feed.Entries) != len(want) {
		t.Fatalf("entries = %+v", feed.Entries)
	}
	for i, w := range want {
		if feed.Entries[i].Link != w {
			t.Errorf("entry %d = %s, want %s", i, feed.Entries[i].Link, w)
		}
	}
	if feed.Entries[0].Title != "Newer story" {
		t.Errorf("title = %q", feed.Entries[0].Title)
	}
}

func TestGoogleNewsFetcherStatusError(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, "")
	f := NewGoogleNewsFetcher(httpclient.NewRestyClient(time.Second))
	if _, err := f.Fetch(context.Background(), Provider{ID: "x", Type: ProviderTypeGoogleNews, SourceURL: srv.URL}); err == nil {
		t.Fatal("expected error")
	}
}
