// Package httpapi serves the attendance JSON API, the live websocket feed
// and the Prometheus endpoint.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/live"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/service"
	"github.com/Rasheed893/biotime-live-view/internal/livefeed"
)

type Dependencies struct {
	Addr      string
	Logs      *service.LogService
	Directory *service.Directory
	Health    *service.Health
	Compiler  *filter.Compiler

	// Live and Hub are nil when the live feed is disabled.
	Live *live.Reconciler
	Hub  *livefeed.Hub

	CORSOrigins []string
	// RateLimit is requests per minute per client IP on /api. 0 disables.
	RateLimit int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	httpServer *http.Server

	logs     *service.LogService
	dir      *service.Directory
	health   *service.Health
	compiler *filter.Compiler
	live     *live.Reconciler
	hub      *livefeed.Hub
	origins  []string
	now      func() time.Time
}

func NewServer(d Dependencies) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Compiler == nil {
		d.Compiler = filter.NewCompiler(filter.Lenient, time.Local)
	}

	s := &Server{
		logs:     d.Logs,
		dir:      d.Directory,
		health:   d.Health,
		compiler: d.Compiler,
		live:     d.Live,
		hub:      d.Hub,
		origins:  d.CORSOrigins,
		now:      d.Now,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, truncatedHeader},
		MaxAge:         86400,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if d.RateLimit > 0 {
			r.Use(httprate.LimitByIP(d.RateLimit, time.Minute))
		}

		r.Get("/health", s.handleHealth)
		r.Get("/users", s.handleUsers)
		r.Get("/devices", s.handleDevices)
		r.Get("/remote-messages", s.handleRemoteMessages)

		r.Get("/logs", s.handleLogs)
		r.Get("/logs/history", s.handleHistory)

		r.Get("/reports/daily", s.handleDailyReport)
		r.Get("/reports/user", s.handleUserReport)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/live", func(r chi.Router) {
			r.Use(s.requireLive)
			r.Get("/", s.handleLiveSnapshot)
			r.Post("/pause", s.handleLivePause)
			r.Post("/resume", s.handleLiveResume)
			r.Get("/ws", s.handleLiveWS)
		})
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
