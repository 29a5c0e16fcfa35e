package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// rankResponse mirrors the Tranco ranks endpoint:
// GET {base}/ranks/domain/{domain}
type rankResponse struct {
	Domain string `json:"domain"`
	Ranks  []struct {
		Date string `json:"date"`
		Rank int    `json:"rank"`
	} `json:"ranks"`
}

// LookupTrafficRank returns the most recent global rank of host's
// registrable domain, or 0 when it is unknown.
func (f *Fetcher) LookupTrafficRank(ctx context.Context, host string) int {
	if f.opts.RankBaseURL == "" {
		return 0
	}
	domain, err := RegistrableDomain(host)
	if err != nil {
		return 0
	}

	rank, err := f.fetchRank(ctx, domain)
	if err != nil {
		f.logger.Debug("traffic rank lookup failed", zap.String("domain", domain), zap.Error(err))
		return 0
	}
	return rank
}

func (f *Fetcher) fetchRank(ctx context.Context, domain string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(f.opts.RankBaseURL, "/") + "/ranks/domain/" + url.PathEscape(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rank api error: %v", resp.Status)
	}

	var data rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, err
	}
	if len(data.Ranks) == 0 {
		return 0, nil
	}

	// Entries are dated; keep the latest.
	latest := data.Ranks[0]
	for _, r := range data.Ranks[1:] {
		if r.Date > latest.Date {
			latest = r
		}
	}
	return latest.Rank, nil
}
