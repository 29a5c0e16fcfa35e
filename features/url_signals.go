package features

import (
	"net"
	"regexp"
	"strings"
	"unicode/utf8"
)

var shortenerRe = regexp.MustCompile(`bit\.ly|goo\.gl|tinyurl|ow\.ly|t\.co`)

// usingIP flags URLs whose host is a bare IP address.
func usingIP(in *Input) int {
	host := in.host()
	if host == "" {
		// Scheme-less input such as "10.0.0.1/login" has no netloc.
		host, _, _ = strings.Cut(in.URL, "/")
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return Phishing
	}
	return Legitimate
}

func longURL(in *Input) int {
	n := utf8.RuneCountInString(in.URL)
	switch {
	case n < 54:
		return Legitimate
	case n <= 75:
		return Suspicious
	default:
		return Phishing
	}
}

func shortURL(in *Input) int {
	if in.URL == "" || shortenerRe.MatchString(in.URL) {
		return Phishing
	}
	return Legitimate
}

func symbolAt(in *Input) int {
	if strings.Contains(in.URL, "@") {
		return Phishing
	}
	return Legitimate
}

// doubleSlashRedirect flags a "//" past the scheme separator.
func doubleSlashRedirect(in *Input) int {
	if strings.LastIndex(in.URL, "//") > 6 {
		return Phishing
	}
	return Legitimate
}

// domainFree scores Legitimate when the netloc exists and does not contain
// sub. Without a netloc the rule cannot be evaluated.
func domainFree(in *Input, sub string) int {
	if in.Domain == "" || strings.Contains(in.Domain, sub) {
		return Phishing
	}
	return Legitimate
}

func prefixSuffix(in *Input) int  { return domainFree(in, "-") }
func httpsInDomain(in *Input) int { return domainFree(in, "https") }

// subDomains counts dots across the whole URL, not just the host.
func subDomains(in *Input) int {
	switch strings.Count(in.URL, ".") {
	case 1:
		return Legitimate
	case 2:
		return Suspicious
	default:
		return Phishing
	}
}

func usesHTTPS(in *Input) int {
	if in.Scheme == "https" {
		return Legitimate
	}
	return Phishing
}

func nonStandardPort(in *Input) int { return domainFree(in, ":") }

func pageRank(*Input) int {
	return Legitimate
}
