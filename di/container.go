package di

import (
	"fmt"
	"net/http"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"phishguard/classifier"
	"phishguard/config"
	"phishguard/features"
	"phishguard/fetch"
	"phishguard/logging"
	"phishguard/web"
)

// BuildContainer creates the dependency injection container for the web
// service.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register fetcher options
	if err := container.Provide(FetchOptions); err != nil {
		return nil, err
	}

	// Register fetcher and extractor
	if err := container.Provide(fetch.New); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *fetch.Fetcher, logger *zap.Logger) web.Extractor {
		return features.NewExtractor(f, logger)
	}); err != nil {
		return nil, err
	}

	// Register model; a bad artifact fails the container, not a request
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (classifier.Model, error) {
		path := cfg.GetString("model.path")
		forest, err := classifier.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", path, err)
		}
		logger.Info("Model loaded",
			zap.String("path", path),
			zap.Int("trees", len(forest.Trees)),
			zap.Float64("accuracy", forest.Accuracy))
		return forest, nil
	}); err != nil {
		return nil, err
	}

	// Register web handler
	if err := container.Provide(func(ex web.Extractor, model classifier.Model, logger *zap.Logger) (*web.Handler, error) {
		return web.NewHandler(ex, model, logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(cfg *config.Config, h *web.Handler) *http.Server {
		return &http.Server{
			Addr:    cfg.GetString("server.listen_address"),
			Handler: h.Routes(),
		}
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// FetchOptions maps configuration onto fetcher options.
func FetchOptions(cfg *config.Config) (fetch.Options, error) {
	opts := fetch.Options{
		MaxBodyBytes:         cfg.GetInt64("fetch.max_body_bytes"),
		MaxRedirects:         cfg.GetInt("fetch.max_redirects"),
		UserAgent:            cfg.GetString("fetch.user_agent"),
		RankBaseURL:          cfg.GetString("rank.base_url"),
		SearchURLTemplate:    cfg.GetString("search.url_template"),
		SearchResultSelector: cfg.GetString("search.result_selector"),
		RenderJS:             cfg.GetBool("fetch.render_js"),
		ChromePath:           cfg.GetString("fetch.chrome_path"),
	}
	var err error
	if opts.Timeout, err = cfg.GetDuration("fetch.timeout"); err != nil {
		return opts, err
	}
	if opts.WhoisTimeout, err = cfg.GetDuration("whois.timeout"); err != nil {
		return opts, err
	}
	return opts, nil
}
