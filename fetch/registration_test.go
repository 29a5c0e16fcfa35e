package fetch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	parser "github.com/likexian/whois-parser"
	"go.uber.org/zap"
)

type recordingWhois struct {
	responses map[string]string
	calls     []string
}

func (r *recordingWhois) Whois(domain string, _ ...string) (string, error) {
	r.calls = append(r.calls, domain)
	if raw, ok := r.responses[domain]; ok {
		return raw, nil
	}
	return "", errors.New("connection refused")
}

const verisignRecord = `   Domain Name: EXAMPLE.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.iana.org
   Registrar URL: http://res-dom.iana.org
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 1995-08-14T04:00:00Z
   Registry Expiry Date: 2026-08-13T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Registrar IANA ID: 376
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Name Server: A.IANA-SERVERS.NET
   Name Server: B.IANA-SERVERS.NET
   DNSSEC: signedDelegation
>>> Last update of whois database: 2026-10-18T10:00:00Z <<<
`

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"example.com", "example.com", false},
		{"www.Example.COM", "example.com", false},
		{"login.secure.example.co.uk:8443", "example.co.uk", false},
		{"user:pass@shop.example.org", "example.org", false},
		{"bücher.example", "xn--bcher-kva.example", false},
		{"192.168.0.1", "", true},
		{"[2001:db8::1]:443", "", true},
		{"co.uk", "", true},
		{"localhost", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := RegistrableDomain(tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1995-08-14T04:00:00Z", time.Date(1995, 8, 14, 4, 0, 0, 0, time.UTC)},
		{"2020-01-02 03:04:05", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2020-01-02", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"02-Jan-2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{" 2020.01.02 ", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"before the flood", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseWhoisDate(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseWhoisDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegistrationFromInfo(t *testing.T) {
	info := parser.WhoisInfo{
		Domain: &parser.Domain{
			Domain:         "example.com",
			CreatedDate:    "2001-05-01",
			ExpirationDate: "2031-05-01T00:00:00Z",
		},
		Registrar: &parser.Contact{Name: "Example Registrar"},
	}
	reg := registrationFromInfo("example.com", "raw", info)

	if reg.Registrar != "Example Registrar" {
		t.Errorf("Registrar = %q", reg.Registrar)
	}
	if reg.Created.Year() != 2001 || reg.Expires.Year() != 2031 {
		t.Errorf("dates = %v / %v", reg.Created, reg.Expires)
	}
	if !reg.Updated.IsZero() {
		t.Error("missing updated date should stay zero")
	}
	if reg.Raw != "raw" {
		t.Error("raw record not kept")
	}
}

func TestLookupRegistration(t *testing.T) {
	w := &recordingWhois{responses: map[string]string{"example.com": verisignRecord}}
	f := New(Options{}, zap.NewNop()).WithWhoisClient(w)

	reg := f.LookupRegistration(context.Background(), "www.example.com:8080")
	if reg == nil {
		t.Fatal("expected a registration")
	}
	if !reflect.DeepEqual(w.calls, []string{"example.com"}) {
		t.Errorf("whois calls = %v", w.calls)
	}
	if reg.Created.Year() != 1995 {
		t.Errorf("Created = %v", reg.Created)
	}
	if reg.Expires.Year() != 2026 {
		t.Errorf("Expires = %v", reg.Expires)
	}
}

func TestLookupRegistrationFailures(t *testing.T) {
	w := &recordingWhois{responses: map[string]string{
		"unknown.test": "No match for \"UNKNOWN.TEST\".\n",
	}}
	f := New(Options{}, zap.NewNop()).WithWhoisClient(w)

	for _, host := range []string{"unknown.test", "down.test", "10.0.0.1", ""} {
		if reg := f.LookupRegistration(context.Background(), host); reg != nil {
			t.Errorf("LookupRegistration(%q) = %+v, want nil", host, reg)
		}
	}
	if len(w.calls) != 2 {
		t.Errorf("IP and empty hosts must not reach whois, calls = %v", w.calls)
	}
}

func TestLookupRegistrationStopsAtRegistrableDomain(t *testing.T) {
	w := &recordingWhois{responses: map[string]string{
		"unregistered-bank.co.uk": "No match for \"UNREGISTERED-BANK.CO.UK\".\n",
		"co.uk":                   strings.ReplaceAll(verisignRecord, "EXAMPLE.COM", "CO.UK"),
	}}
	f := New(Options{}, zap.NewNop()).WithWhoisClient(w)

	if reg := f.LookupRegistration(context.Background(), "login.unregistered-bank.co.uk"); reg != nil {
		t.Errorf("LookupRegistration = %+v, want nil for an unregistered domain", reg)
	}
	if !reflect.DeepEqual(w.calls, []string{"unregistered-bank.co.uk"}) {
		t.Errorf("whois calls = %v, want only the registrable domain", w.calls)
	}
}

func TestLookupRegistrationHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := New(Options{}, zap.NewNop()).WithWhoisClient(blockingWhois(block))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if reg := f.LookupRegistration(ctx, "slow.example"); reg != nil {
		t.Error("expected nil on cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("lookup ignored context deadline")
	}
}

type blockingWhois chan struct{}

func (b blockingWhois) Whois(string, ...string) (string, error) {
	<-b
	return "", errors.New("unblocked")
}
