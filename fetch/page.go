package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Page is the best-effort result of fetching the submitted URL.
type Page struct {
	StatusCode int
	FinalURL   string
	Redirects  int    // number of redirect hops followed
	Body       string // decoded response text
	Doc        *goquery.Document
}

// OK reports whether the response counts as successful (status below 400).
// A nil page is never OK.
func (p *Page) OK() bool {
	return p != nil && p.StatusCode > 0 && p.StatusCode < 400
}

// HasDoc reports whether a parsed document is available.
func (p *Page) HasDoc() bool {
	return p != nil && p.Doc != nil
}

func newHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Fetch performs a GET of rawURL. Any failure yields nil.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *Page {
	page, err := f.fetch(ctx, rawURL)
	if err != nil {
		f.logger.Debug("page fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	if f.renderer != nil && page.OK() {
		rendered, err := f.renderer.Render(ctx, page.FinalURL)
		if err != nil {
			f.logger.Debug("render failed, keeping static document", zap.String("url", rawURL), zap.Error(err))
		} else if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered)); err == nil {
			page.Doc = doc
		}
	}
	return page
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.opts.MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body := string(raw)

	page := &Page{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Redirects:  redirectCount(resp),
		Body:       body,
	}

	// The document is built regardless of status; only a parse failure drops it.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		page.Doc = doc
	}
	return page, nil
}

// redirectCount walks back from the final request through the responses that
// caused each hop.
func redirectCount(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}
