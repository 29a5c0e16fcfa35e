package di_test

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/dig"

	"phishguard/classifier"
	"phishguard/config"
	"phishguard/di"
)

func TestFetchOptions(t *testing.T) {
	v := config.Defaults()
	v.Set("fetch.timeout", "3s")
	v.Set("rank.base_url", "")
	opts, err := di.FetchOptions(config.FromViper(v))
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}
	if opts.Timeout != 3*time.Second || opts.WhoisTimeout != 10*time.Second {
		t.Errorf("timeouts = %v / %v", opts.Timeout, opts.WhoisTimeout)
	}
	if opts.MaxRedirects != 30 || opts.MaxBodyBytes != 2*1024*1024 {
		t.Errorf("limits = %d / %d", opts.MaxRedirects, opts.MaxBodyBytes)
	}
	if opts.RankBaseURL != "" || opts.SearchResultSelector != "a.result__a" {
		t.Errorf("lookups = %q / %q", opts.RankBaseURL, opts.SearchResultSelector)
	}

	v.Set("whois.timeout", "later")
	if _, err := di.FetchOptions(config.FromViper(v)); err == nil {
		t.Error("expected error for invalid whois.timeout")
	}
}

func TestContainerFailsWithoutModel(t *testing.T) {
	t.Setenv("PHISHGUARD_MODEL_PATH", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("PHISHGUARD_LOGGING_LEVEL", "error")

	container, err := di.BuildContainer()
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	err = container.Invoke(func(*http.Server) {})
	if err == nil || !errors.Is(dig.RootCause(err), classifier.ErrInvalidModel) {
		t.Fatalf("Invoke error = %v, want ErrInvalidModel", err)
	}
}
