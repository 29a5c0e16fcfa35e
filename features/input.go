package features

import (
	"net"
	"net/url"
	"strings"
	"time"

	"phishguard/fetch"
)

// Input is everything a signal may look at. It is built once per URL and
// never mutated, so signals can run in any order.
type Input struct {
	URL      string   // raw submitted string
	Parsed   *url.URL // nil when the URL does not parse
	Scheme   string   // lower-cased, "" without "scheme://"
	Domain   string   // network location: [userinfo@]host[:port]
	Evidence fetch.Evidence
	Now      time.Time
}

// NewInput parses rawURL and attaches the fetched evidence. Scheme and
// Domain are filled even when the strict parse fails.
func NewInput(rawURL string, ev fetch.Evidence, now time.Time) Input {
	in := Input{URL: rawURL, Evidence: ev, Now: now}
	if u, err := url.Parse(rawURL); err == nil {
		in.Parsed = u
	}
	in.Scheme, in.Domain = fetch.SplitURL(rawURL)
	return in
}

// host is Domain without userinfo or port.
func (in *Input) host() string {
	h := in.Domain
	if i := strings.LastIndex(h, "@"); i >= 0 {
		h = h[i+1:]
	}
	if name, _, err := net.SplitHostPort(h); err == nil {
		return name
	}
	return strings.Trim(h, "[]")
}

func (in *Input) page() *fetch.Page {
	return in.Evidence.Page
}

func (in *Input) registration() *fetch.Registration {
	return in.Evidence.Registration
}

// okBody returns the response text when the fetch produced a successful
// response.
func (in *Input) okBody() (string, bool) {
	if p := in.page(); p.OK() {
		return p.Body, true
	}
	return "", false
}
