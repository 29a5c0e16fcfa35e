package fetch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options controls the outbound lookups made for one URL. An empty
// RankBaseURL or SearchURLTemplate disables that lookup.
type Options struct {
	Timeout              time.Duration
	MaxBodyBytes         int64
	MaxRedirects         int
	UserAgent            string
	WhoisTimeout         time.Duration
	RankBaseURL          string
	SearchURLTemplate    string
	SearchResultSelector string
	RenderJS             bool
	ChromePath           string
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Timeout:              10 * time.Second,
		MaxBodyBytes:         2 * 1024 * 1024,
		MaxRedirects:         30,
		UserAgent:            "Mozilla/5.0 (compatible; phishguard/1.0)",
		WhoisTimeout:         10 * time.Second,
		RankBaseURL:          "https://tranco-list.eu/api",
		SearchURLTemplate:    "https://html.duckduckgo.com/html/?q=%s",
		SearchResultSelector: "a.result__a",
	}
}

// Evidence bundles everything fetched for one URL. Every field may be
// absent: nil pointers, or zero for TrafficRank and SearchHits.
type Evidence struct {
	Page         *Page
	Registration *Registration
	TrafficRank  int
	SearchHits   int
}

// Fetcher performs the best-effort network lookups. It holds no per-request
// state and is safe for concurrent use.
type Fetcher struct {
	opts     Options
	client   *http.Client
	whois    WhoisClient
	renderer Renderer
	logger   *zap.Logger
}

// New creates a Fetcher from opts, filling unset fields from DefaultOptions.
func New(opts Options, logger *zap.Logger) *Fetcher {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.WhoisTimeout <= 0 {
		opts.WhoisTimeout = def.WhoisTimeout
	}
	if opts.SearchResultSelector == "" {
		opts.SearchResultSelector = def.SearchResultSelector
	}

	f := &Fetcher{
		opts:   opts,
		client: newHTTPClient(opts.Timeout, opts.MaxRedirects),
		whois:  newWhoisClient(opts.WhoisTimeout),
		logger: logger,
	}
	if opts.RenderJS {
		f.renderer = NewChromeRenderer(opts.ChromePath, opts.Timeout, logger)
	}
	return f
}

// WithWhoisClient replaces the WHOIS client.
func (f *Fetcher) WithWhoisClient(c WhoisClient) *Fetcher {
	f.whois = c
	return f
}

// WithRenderer replaces the headless renderer; nil disables rendering.
func (f *Fetcher) WithRenderer(r Renderer) *Fetcher {
	f.renderer = r
	return f
}

// Gather runs the page fetch, WHOIS, traffic rank and search lookups
// concurrently. It never fails; missing pieces stay empty.
func (f *Fetcher) Gather(ctx context.Context, rawURL string) Evidence {
	var ev Evidence

	_, host := SplitURL(rawURL)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ev.Page = f.Fetch(gctx, rawURL)
		return nil
	})

	if host != "" {
		g.Go(func() error {
			ev.Registration = f.LookupRegistration(gctx, host)
			return nil
		})
		g.Go(func() error {
			ev.TrafficRank = f.LookupTrafficRank(gctx, host)
			return nil
		})
	}

	g.Go(func() error {
		ev.SearchHits = f.CountSearchResults(gctx, rawURL)
		return nil
	})

	_ = g.Wait()

	f.logger.Debug("lookups finished",
		zap.String("url", rawURL),
		zap.Bool("page", ev.Page != nil),
		zap.Bool("registration", ev.Registration != nil),
		zap.Int("traffic_rank", ev.TrafficRank),
		zap.Int("search_hits", ev.SearchHits))

	return ev
}
