package fetch

import (
	"net/url"
	"strings"
)

// SplitURL returns the lower-cased scheme and the network location
// ([userinfo@]host[:port]) of rawURL. URLs the strict parser rejects, such
// as ones with a bad percent-escape or a space in the path, are split on
// text instead: the netloc is whatever follows "://" up to the first
// '/', '?' or '#'. Both results are empty when rawURL has no "scheme://"
// or an unbalanced IPv6 bracket.
func SplitURL(rawURL string) (scheme, netloc string) {
	if u, err := url.Parse(rawURL); err == nil {
		netloc = u.Host
		if u.User != nil {
			netloc = u.User.String() + "@" + u.Host
		}
		return strings.ToLower(u.Scheme), netloc
	}

	i := strings.Index(rawURL, "://")
	if i <= 0 || !validScheme(rawURL[:i]) {
		return "", ""
	}
	rest := rawURL[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	if strings.Contains(rest, "[") != strings.Contains(rest, "]") {
		return "", ""
	}
	return strings.ToLower(rawURL[:i]), rest
}

func validScheme(s string) bool {
	for i, c := range s {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}
