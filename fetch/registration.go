package fetch

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Registration holds the subset of a WHOIS record the signals consume.
// Zero times mean the field was missing or unparseable.
type Registration struct {
	Domain    string
	Registrar string
	Created   time.Time
	Expires   time.Time
	Updated   time.Time
	Raw       string
}

// WhoisClient is satisfied by *whois.Client.
type WhoisClient interface {
	Whois(domain string, servers ...string) (string, error)
}

var errNoRegistrableDomain = errors.New("no registrable domain")

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
	"January 2 2006",
}

func newWhoisClient(timeout time.Duration) *whois.Client {
	return whois.NewClient().SetTimeout(timeout)
}

// LookupRegistration queries WHOIS for the registrable part of host. Any
// failure yields nil.
func (f *Fetcher) LookupRegistration(ctx context.Context, host string) *Registration {
	domain, err := RegistrableDomain(host)
	if err != nil {
		f.logger.Debug("skipping whois", zap.String("host", host), zap.Error(err))
		return nil
	}

	raw, err := f.queryWhois(ctx, domain)
	if err != nil {
		f.logger.Debug("whois query failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}

	// No parent fallback: everything above the eTLD+1 is a public suffix.
	info, err := parser.Parse(raw)
	if err != nil || info.Domain == nil {
		f.logger.Debug("whois parse failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}
	return registrationFromInfo(domain, raw, info)
}

func (f *Fetcher) queryWhois(ctx context.Context, domain string) (string, error) {
	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := f.whois.Whois(domain)
		ch <- result{raw, err}
	}()

	select {
	case r := <-ch:
		return r.raw, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func registrationFromInfo(domain, raw string, info parser.WhoisInfo) *Registration {
	reg := &Registration{
		Domain:  domain,
		Raw:     raw,
		Created: parseWhoisDate(info.Domain.CreatedDate),
		Expires: parseWhoisDate(info.Domain.ExpirationDate),
		Updated: parseWhoisDate(info.Domain.UpdatedDate),
	}
	if info.Registrar != nil {
		reg.Registrar = info.Registrar.Name
	}
	return reg
}

func parseWhoisDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, l := range whoisDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RegistrableDomain reduces a URL host (optionally carrying userinfo and a
// port) to its eTLD+1 in ASCII form. IP literals and bare public suffixes
// have no registration.
func RegistrableDomain(host string) (string, error) {
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[].")
	if host == "" || net.ParseIP(host) != nil {
		return "", errNoRegistrableDomain
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", err
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		// host is itself a public suffix
		return "", errNoRegistrableDomain
	}
	return etld1, nil
}
