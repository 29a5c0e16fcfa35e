package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// CountSearchResults queries the configured search page for target and
// returns the number of result links found. Failures count as zero.
func (f *Fetcher) CountSearchResults(ctx context.Context, target string) int {
	if f.opts.SearchURLTemplate == "" || target == "" {
		return 0
	}

	n, err := f.search(ctx, target)
	if err != nil {
		f.logger.Debug("search index lookup failed", zap.String("target", target), zap.Error(err))
		return 0
	}
	return n
}

func (f *Fetcher) search(ctx context.Context, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	endpoint := strings.Replace(f.opts.SearchURLTemplate, "%s", url.QueryEscape(target), 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("search error: %v", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse results: %w", err)
	}
	return doc.Find(f.opts.SearchResultSelector).Length(), nil
}
