package web

import (
	"net/http"

	"go.uber.org/zap"

	"subjectview/internal/httpx"
)

type RouterConfig struct {
	ImagesDir      string
	RateLimitRPS   float64
	RateLimitBurst int
	EnableHSTS     bool
}

func NewRouter(sessions *Sessions, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewHandler(sessions, logger)

	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /{$}", h.Page)
	router.HandleFunc("GET /events/{id}", h.Event)
	router.HandleFunc("POST /events/{id}", h.Event)
	router.HandleFunc("GET /api/state", h.State)
	router.HandleFunc("GET /static/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write([]byte(styleSheet))
	})
	if cfg.ImagesDir != "" {
		router.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImagesDir))))
	}

	var handler http.Handler = router
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		handler = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware(handler)
	}
	handler = httpx.RequestSizeLimitMiddleware(1 << 16)(handler)
	handler = httpx.SecurityHeadersMiddleware(cfg.EnableHSTS)(handler)
	handler = httpx.RecoveryMiddleware(logger)(handler)
	handler = httpx.AccessLogMiddleware(logger)(handler)
	handler = httpx.RequestIDMiddleware(handler)
	return handler
}
