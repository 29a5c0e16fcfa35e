package features

import "time"

const trafficRankThreshold = 100000

// monthsBetween counts calendar months from a to b, ignoring days.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func domainRegistrationLength(in *Input) int {
	reg := in.registration()
	if reg == nil || reg.Created.IsZero() || reg.Expires.IsZero() {
		return Phishing
	}
	if monthsBetween(reg.Created, reg.Expires) >= 12 {
		return Legitimate
	}
	return Phishing
}

// abnormalURL is deliberately always Phishing in practice: it scores
// Legitimate only when the page text equals the raw WHOIS record. Trained
// models carry this column as a constant -1.
func abnormalURL(in *Input) int {
	body, ok := in.okBody()
	reg := in.registration()
	if ok && reg != nil && body == reg.Raw {
		return Legitimate
	}
	return Phishing
}

// ageOfDomain requires at least six 30-day months since creation.
func ageOfDomain(in *Input) int {
	reg := in.registration()
	if reg == nil || reg.Created.IsZero() {
		return Phishing
	}
	days := int(in.Now.Sub(reg.Created).Hours() / 24)
	if days/30 >= 6 {
		return Legitimate
	}
	return Phishing
}

func dnsRecord(in *Input) int {
	if in.registration() != nil {
		return Legitimate
	}
	return Phishing
}

func websiteTraffic(in *Input) int {
	switch rank := in.Evidence.TrafficRank; {
	case rank <= 0:
		return Phishing
	case rank < trafficRankThreshold:
		return Legitimate
	default:
		return Suspicious
	}
}

func googleIndex(in *Input) int {
	if in.Evidence.SearchHits > 0 {
		return Legitimate
	}
	return Phishing
}
