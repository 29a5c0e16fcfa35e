package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings.
type Config struct {
	v *viper.Viper
}

// New builds the settings from, lowest precedence first: built-in defaults,
// .env, a YAML file and PHISHGUARD_* variables. PHISHGUARD_CONFIG names the
// YAML file; without it phishguard.yaml is looked up in the working
// directory and /etc/phishguard, and may be absent.
func New() (*Config, error) {
	_ = godotenv.Load()

	v := Defaults()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("PHISHGUARD_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("phishguard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/phishguard")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := FromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper wraps v without reading any file or environment.
func FromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Defaults returns a viper instance holding only the built-in settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Server; hosting platforms inject PORT
	listen := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		listen = ":" + port
	}
	v.SetDefault("server.listen_address", listen)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Model
	v.SetDefault("model.path", "model/model.json")

	// Fetcher
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.max_body_bytes", 2*1024*1024)
	v.SetDefault("fetch.max_redirects", 30)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.render_js", false)
	v.SetDefault("fetch.chrome_path", "")

	// Third-party lookups
	v.SetDefault("whois.timeout", "10s")
	v.SetDefault("rank.base_url", "https://tranco-list.eu/api")
	v.SetDefault("search.url_template", "https://html.duckduckgo.com/html/?q=%s")
	v.SetDefault("search.result_selector", "a.result__a")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate rejects settings the service cannot start with.
func (c *Config) validate() error {
	for _, key := range []string{"server.shutdown_timeout", "fetch.timeout", "whois.timeout"} {
		d, err := c.GetDuration(key)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", key, d)
		}
	}
	if n := c.GetInt("fetch.max_redirects"); n <= 0 {
		return fmt.Errorf("fetch.max_redirects must be positive, got %d", n)
	}
	if n := c.GetInt64("fetch.max_body_bytes"); n <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive, got %d", n)
	}
	if tmpl := c.GetString("search.url_template"); tmpl != "" && !strings.Contains(tmpl, "%s") {
		return fmt.Errorf("search.url_template %q has no %%s placeholder", tmpl)
	}
	return nil
}

// Typed accessors; a missing key yields the zero value.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *Config) GetInt64(key string) int64   { return c.v.GetInt64(key) }
func (c *Config) GetBool(key string) bool     { return c.v.GetBool(key) }

// GetDuration parses key as a time.Duration.
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
