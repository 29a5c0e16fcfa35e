package features

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	mailRe        = regexp.MustCompile(`mail\(\)|mailto`)
	statusBarRe   = regexp.MustCompile(`<script>.+onmouseover.+</script>`)
	rightClickRe  = regexp.MustCompile(`event.button ?== ?2`)
	popupRe       = regexp.MustCompile(`alert\(`)
	iframeRe      = regexp.MustCompile(`<iframe>|<frameBorder>`)
	blacklistWord = "blacklist"
)

// references reports whether ref mentions the submitted URL or its domain.
func (in *Input) references(ref string) bool {
	return (in.URL != "" && strings.Contains(ref, in.URL)) ||
		(in.Domain != "" && strings.Contains(ref, in.Domain))
}

func singleDot(ref string) bool {
	return strings.Count(ref, ".") == 1
}

// shareOf returns the percentage of attr values in sel satisfying match, and
// 0 when sel is empty.
func shareOf(sel *goquery.Selection, attr string, match func(string) bool) float64 {
	total, hits := 0, 0
	sel.Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr(attr)
		total++
		if match(v) {
			hits++
		}
	})
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func favicon(in *Input) int {
	p := in.page()
	if !p.HasDoc() {
		return Phishing
	}
	found := false
	p.Doc.Find("link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		found = in.references(href) || singleDot(href)
		return !found
	})
	if found {
		return Legitimate
	}
	return Phishing
}

// requestURL scores the share of embedded media loaded from the page's own
// URL or domain. A missing document scores as no media at all.
func requestURL(in *Input) int {
	pct := 0.0
	if p := in.page(); p.HasDoc() {
		pct = shareOf(p.Doc.Find("img[src], audio[src], embed[src], iframe[src]"), "src", func(src string) bool {
			return in.references(src) || singleDot(src)
		})
	}
	switch {
	case pct < 22:
		return Legitimate
	case pct < 61:
		return Suspicious
	default:
		return Phishing
	}
}

func anchorURL(in *Input) int {
	pct := 0.0
	if p := in.page(); p.HasDoc() {
		pct = shareOf(p.Doc.Find("a[href]"), "href", func(href string) bool {
			return !in.references(href)
		})
	}
	switch {
	case pct < 31:
		return Legitimate
	case pct < 67:
		return Suspicious
	default:
		return Phishing
	}
}

func linksInTags(in *Input) int {
	pct := 0.0
	if p := in.page(); p.HasDoc() {
		pct = shareOf(p.Doc.Find("link[href], script[href]"), "href", func(href string) bool {
			return in.references(href) || singleDot(href)
		})
	}
	switch {
	case pct < 17:
		return Legitimate
	case pct < 81:
		return Suspicious
	default:
		return Phishing
	}
}

// serverFormHandler is decided by the first form that is blank or points
// off-site.
func serverFormHandler(in *Input) int {
	p := in.page()
	if !p.HasDoc() {
		return Phishing
	}
	score := Legitimate
	p.Doc.Find("form[action]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		action, _ := s.Attr("action")
		switch {
		case action == "" || action == "about:blank":
			score = Phishing
		case !in.references(action):
			score = Suspicious
		default:
			return true
		}
		return false
	})
	return score
}

func infoEmail(in *Input) int {
	p := in.page()
	if !p.HasDoc() {
		return Legitimate
	}
	markup, err := p.Doc.Html()
	if err == nil && mailRe.MatchString(markup) {
		return Phishing
	}
	return Legitimate
}

// websiteForwarding scores the redirect chain of a successful response.
func websiteForwarding(in *Input) int {
	p := in.page()
	if !p.OK() {
		return Phishing
	}
	switch {
	case p.Redirects <= 1:
		return Legitimate
	case p.Redirects <= 4:
		return Suspicious
	default:
		return Phishing
	}
}

func bodyMatches(in *Input, re *regexp.Regexp) int {
	if body, ok := in.okBody(); ok && re.MatchString(body) {
		return Phishing
	}
	return Legitimate
}

func statusBarCustomization(in *Input) int { return bodyMatches(in, statusBarRe) }
func disableRightClick(in *Input) int      { return bodyMatches(in, rightClickRe) }
func popupWindow(in *Input) int            { return bodyMatches(in, popupRe) }
func iframeRedirection(in *Input) int      { return bodyMatches(in, iframeRe) }

func linksPointingToPage(in *Input) int {
	if p := in.page(); p.HasDoc() && p.Doc.Find("a").Length() > 0 {
		return Legitimate
	}
	return Phishing
}

func statsReport(in *Input) int {
	if body, ok := in.okBody(); ok && strings.Contains(body, blacklistWord) {
		return Phishing
	}
	return Legitimate
}
