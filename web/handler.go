// Package web serves the URL check form.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"phishguard/classifier"
	"phishguard/features"
)

//go:embed templates/index.html
var templateFS embed.FS

const classifyFailed = "Unable to classify this URL."

// Extractor turns a URL into a feature vector.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) features.Vector
}

type page struct {
	URL        string
	Scored     bool
	Phishing   bool
	Legitimate string
}

// Handler renders the form and scores submitted URLs.
type Handler struct {
	extractor Extractor
	model     classifier.Model
	tmpl      *template.Template
	logger    *zap.Logger
}

// NewHandler validates model and parses the page template.
func NewHandler(ex Extractor, model any, logger *zap.Logger) (*Handler, error) {
	m, err := classifier.Validate(model)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Handler{extractor: ex, model: m, tmpl: tmpl, logger: logger}, nil
}

// Routes returns the router for the service.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/", h.classify)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, page{})
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values, ok := r.PostForm["url"]
	if !ok {
		http.Error(w, "missing form field: url", http.StatusBadRequest)
		return
	}
	rawURL := values[0]

	vec := h.extractor.Extract(r.Context(), rawURL)
	verdict, err := classifier.Classify(h.model, vec)
	if err != nil {
		h.logger.Error("classification failed",
			zap.String("url", rawURL),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		http.Error(w, classifyFailed, http.StatusInternalServerError)
		return
	}

	h.logger.Info("url classified",
		zap.String("url", rawURL),
		zap.Int("label", verdict.Label),
		zap.Float64("legitimate", verdict.Legitimate))

	h.render(w, r, page{
		URL:        rawURL,
		Scored:     true,
		Phishing:   verdict.IsPhishing(),
		Legitimate: fmt.Sprintf("%.2f", verdict.Legitimate),
	})
}

// render executes into a buffer so a template failure never leaves a
// partial page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, p page) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, p); err != nil {
		h.logger.Error("render failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		http.Error(w, classifyFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
