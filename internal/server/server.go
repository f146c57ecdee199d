// Package server exposes the signal service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"ForexSignal/internal/service"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// RateLimit is the sustained requests per second across all clients;
	// zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server is the HTTP front of a SignalService.
type Server struct {
	svc    *service.SignalService
	opts   Options
	router *gin.Engine
	http   *http.Server
}

// New builds the router and its middleware chain.
func New(svc *service.SignalService, opts Options) *Server {
	s := &Server{svc: svc, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(accessLogMiddleware())
	r.Use(securityHeadersMiddleware())
	r.Use(corsMiddleware(opts.AllowedOrigins))

	r.GET("/", s.handleRoot)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit) + 1
		}
		api.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
	api.POST("/generate-signals", s.handleGenerate)
	api.POST("/backtest", s.handleBacktest)
	api.GET("/signals/history", s.handleHistory)

	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", s.opts.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
