package features

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phishguard/fetch"
)

// Scores every signal can take.
const (
	Phishing   = -1
	Suspicious = 0
	Legitimate = 1
)

// Size is the length of a feature vector.
const Size = 30

// Vector is the positional feature vector the classifier was trained on.
// Position i always holds the score of signals[i].
type Vector [Size]int

type signal struct {
	name     string
	fallback int // returned if the rule panics
	eval     func(*Input) int
}

// The order of this table is a contract with every trained model. Append
// nothing, reorder nothing.
var signals = [Size]signal{
	{"UsingIP", Phishing, usingIP},
	{"LongURL", Phishing, longURL},
	{"ShortURL", Phishing, shortURL},
	{"Symbol@", Phishing, symbolAt},
	{"Redirecting//", Phishing, doubleSlashRedirect},
	{"PrefixSuffix-", Phishing, prefixSuffix},
	{"HTTPSDomainURL", Phishing, httpsInDomain},
	{"SubDomains", Phishing, subDomains},
	{"HTTPS", Phishing, usesHTTPS},
	{"DomainRegLen", Phishing, domainRegistrationLength},
	{"Favicon", Phishing, favicon},
	{"NonStdPort", Phishing, nonStandardPort},
	{"RequestURL", Phishing, requestURL},
	{"AnchorURL", Phishing, anchorURL},
	{"LinksInScriptTags", Phishing, linksInTags},
	{"ServerFormHandler", Phishing, serverFormHandler},
	{"InfoEmail", Phishing, infoEmail},
	{"AbnormalURL", Phishing, abnormalURL},
	{"WebsiteForwarding", Phishing, websiteForwarding},
	{"StatusBarCust", Phishing, statusBarCustomization},
	{"DisableRightClick", Phishing, disableRightClick},
	{"UsingPopupWindow", Phishing, popupWindow},
	{"IframeRedirection", Phishing, iframeRedirection},
	{"AgeofDomain", Phishing, ageOfDomain},
	{"DNSRecording", Phishing, dnsRecord},
	{"WebsiteTraffic", Phishing, websiteTraffic},
	{"PageRank", Legitimate, pageRank},
	{"GoogleIndex", Phishing, googleIndex},
	{"LinksPointingToPage", Phishing, linksPointingToPage},
	{"StatsReport", Phishing, statsReport},
}

// Names returns the column name of each vector position.
func Names() []string {
	names := make([]string, Size)
	for i, s := range signals {
		names[i] = s.name
	}
	return names
}

// Compute evaluates all signals over in. It is pure: the same Input always
// yields the same Vector.
func Compute(in Input) Vector {
	var v Vector
	for i := range signals {
		v[i] = evaluate(&signals[i], &in)
	}
	return v
}

func evaluate(s *signal, in *Input) (score int) {
	defer func() {
		if r := recover(); r != nil {
			score = s.fallback
		}
	}()
	score = s.eval(in)
	if score < Phishing || score > Legitimate {
		return s.fallback
	}
	return score
}

// Gatherer collects the network evidence for a URL.
type Gatherer interface {
	Gather(ctx context.Context, rawURL string) fetch.Evidence
}

// Extractor turns a submitted URL into a feature vector.
type Extractor struct {
	gatherer Gatherer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExtractor creates an Extractor backed by g.
func NewExtractor(g Gatherer, logger *zap.Logger) *Extractor {
	return &Extractor{gatherer: g, logger: logger, now: time.Now}
}

// Extract gathers evidence for rawURL and computes its vector. It never
// fails; unreachable data degrades individual signals.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Vector {
	ev := e.gatherer.Gather(ctx, rawURL)
	v := Compute(NewInput(rawURL, ev, e.now()))
	e.logger.Debug("features extracted", zap.String("url", rawURL), zap.String("vector", v.String()))
	return v
}

func (v Vector) String() string {
	return fmt.Sprint(v[:])
}
