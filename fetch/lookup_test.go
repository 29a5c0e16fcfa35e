package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"phishguard/fetch"
)

func TestLookupTrafficRank(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"domain":"example.co.uk","ranks":[{"date":"2026-01-01","rank":420},{"date":"2026-03-01","rank":401},{"date":"2026-02-01","rank":399}]}`)
	}))
	defer srv.Close()

	f := newTestFetcher(fetch.Options{RankBaseURL: srv.URL + "/api/"})
	if got := f.LookupTrafficRank(context.Background(), "www.example.co.uk:8443"); got != 401 {
		t.Errorf("rank = %d, want 401 (latest entry)", got)
	}
	if gotPath != "/api/ranks/domain/example.co.uk" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestLookupTrafficRankUnknown(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"domain":"rare.test","ranks":[]}`)
	}))
	defer empty.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	}))
	defer garbage.Close()

	tests := []struct {
		name string
		base string
		host string
	}{
		{"not ranked", empty.URL, "rare.test"},
		{"http error", missing.URL, "example.com"},
		{"bad json", garbage.URL, "example.com"},
		{"ip host", empty.URL, "192.168.0.1"},
		{"disabled", "", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(fetch.Options{RankBaseURL: tt.base})
			if got := f.LookupTrafficRank(context.Background(), tt.host); got != 0 {
				t.Errorf("rank = %d, want 0", got)
			}
		})
	}
}

func TestCountSearchResults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `<html><body>
			<a class="result__a" href="https://a.test">a</a>
			<a class="result__a" href="https://b.test">b</a>
			<a class="ad" href="https://c.test">c</a>
		</body></html>`)
	}))
	defer srv.Close()

	f := newTestFetcher(fetch.Options{SearchURLTemplate: srv.URL + "/html/?q=%s"})
	target := "https://example.com/login?next=/a b"
	if got := f.CountSearchResults(context.Background(), target); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if gotQuery != target {
		t.Errorf("query = %q, want %q", gotQuery, target)
	}
}

func TestCountSearchResultsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(fetch.Options{SearchURLTemplate: srv.URL + "/?q=%s"})
	if got := f.CountSearchResults(context.Background(), "https://example.com"); got != 0 {
		t.Errorf("hits = %d, want 0", got)
	}
	if got := newTestFetcher(fetch.Options{}).CountSearchResults(context.Background(), "https://example.com"); got != 0 {
		t.Errorf("disabled search returned %d", got)
	}
}

func TestGather(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/x">x</a></body></html>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat(`<a class="result__a" href="#">r</a>`, 5))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher(fetch.Options{
		RankBaseURL:       srv.URL,
		SearchURLTemplate: srv.URL + "/search?q=%s",
	})
	ev := f.Gather(context.Background(), srv.URL+"/page")

	if ev.Page == nil || !ev.Page.OK() {
		t.Fatal("expected fetched page")
	}
	if ev.Registration != nil {
		t.Error("IP host has no registration")
	}
	if ev.TrafficRank != 0 {
		t.Errorf("TrafficRank = %d, want 0", ev.TrafficRank)
	}
	if ev.SearchHits != 5 {
		t.Errorf("SearchHits = %d, want 5", ev.SearchHits)
	}
}

func TestGatherUnparseableURL(t *testing.T) {
	ev := newTestFetcher(fetch.Options{}).Gather(context.Background(), "http://[::1")
	if ev.Page != nil || ev.Registration != nil || ev.TrafficRank != 0 || ev.SearchHits != 0 {
		t.Errorf("expected empty evidence, got %+v", ev)
	}
}

func TestGatherBadEscapeStillLooksUpDomain(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"domain":"secure-paypal.com","ranks":[{"date":"2026-01-01","rank":250000}]}`)
	}))
	defer srv.Close()

	f := newTestFetcher(fetch.Options{RankBaseURL: srv.URL})
	ev := f.Gather(context.Background(), "https://secure-paypal.com/%zz")

	if ev.Page != nil {
		t.Error("a URL the client rejects has no page")
	}
	if gotPath != "/ranks/domain/secure-paypal.com" || ev.TrafficRank != 250000 {
		t.Errorf("rank lookup path %q, rank %d", gotPath, ev.TrafficRank)
	}
}
