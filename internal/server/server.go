// Package server exposes lecture alignment over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"slidealign/internal/metrics"
	"slidealign/internal/service"
	"slidealign/internal/store"
)

// RunReader serves the run history.
type RunReader interface {
	Get(ctx context.Context, id string) (*store.Run, error)
	List(ctx context.Context, limit int) ([]store.Run, error)
}

// Config tunes the HTTP server.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Version        string
	AllowedOrigins []string
}

// Server is the HTTP front end of an AlignService.
type Server struct {
	cfg     Config
	svc     *service.AlignService
	runs    RunReader
	metrics *metrics.Metrics
	logger  *slog.Logger
	engine  *gin.Engine
}

// New builds the router. runs may be nil when history is disabled.
func New(cfg Config, svc *service.AlignService, runs RunReader, m *metrics.Metrics, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if m == nil {
		m = metrics.New()
	}
	s := &Server{cfg: cfg, svc: svc, runs: runs, metrics: m, logger: logger}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	engine.Use(recovery(logger), requestID(), corsMiddleware(cfg.AllowedOrigins), metricsMiddleware(m), accessLog(logger))

	engine.GET("/", s.health)
	engine.POST("/process-lecture", s.processLecture)
	engine.GET("/runs", s.listRuns)
	engine.GET("/runs/:id", s.getRun)
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	s.engine = engine
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
