// Package web serves the claims import JSON API.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/config"
	"github.com/JonMunkholm/claimsimport/internal/core"
	"github.com/JonMunkholm/claimsimport/internal/report"
	"github.com/JonMunkholm/claimsimport/internal/web/middleware"
)

// ImportService is the import workflow the handlers drive.
// *core.Service satisfies it.
type ImportService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*core.UploadResult, error)
	Process(ctx context.Context, importID uuid.UUID, mappings []core.MappingEntry, rows []core.RawRow) (*core.Summary, error)
	GetImport(ctx context.Context, id uuid.UUID) (core.Import, error)
	ListImports(ctx context.Context) ([]core.Import, error)
	LimiterStatus() core.LimiterStatus
}

// ReportService builds reports. *report.Builder satisfies it.
type ReportService interface {
	FileReport(ctx context.Context, id uuid.UUID) (*report.FileReport, error)
	Analytics(ctx context.Context) (*report.Analytics, error)
}

// Server is the HTTP server for the import API.
type Server struct {
	imports ImportService
	reports ReportService
	cfg     config.ServerConfig
	upload  config.UploadConfig
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer wires routes and middleware.
func NewServer(imports ImportService, reports ReportService, cfg config.ServerConfig, upload config.UploadConfig) *Server {
	s := &Server{
		imports: imports,
		reports: reports,
		cfg:     cfg,
		upload:  upload,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.RequestsPerMinute > 0 {
		s.limiter = newRateLimiter(s.cfg.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Processing holds its own deadline, so only the other routes get
		// the request timeout.
		r.Post("/imports/{importID}/process", s.handleProcess)

		r.Group(func(r chi.Router) {
			if s.cfg.RequestTimeout > 0 {
				r.Use(chimw.Timeout(s.cfg.RequestTimeout))
			}
			r.Get("/schema", s.handleSchema)
			r.Get("/analytics", s.handleAnalytics)
			r.Post("/imports", s.handleUpload)
			r.Get("/imports", s.handleListImports)
			r.Get("/imports/{importID}", s.handleGetImport)
			r.Get("/imports/{importID}/report", s.handleReport)
		})
	})
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
