// Package server owns the HTTP listener: gin engine setup, the health
// endpoint, request size limiting, and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Options struct {
	Addr          string
	Mode          string // "debug" or "release"
	MaxBodySizeMB int
	Logger        *slog.Logger
}

type Server struct {
	Engine *gin.Engine
	addr   string
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, opts Options) *Server {
	if opts.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.MaxBodySizeMB > 0 {
		r.Use(limitBodySize(int64(opts.MaxBodySizeMB) << 20))
	}

	s := &Server{
		Engine: r,
		addr:   opts.Addr,
		db:     db,
		logger: logger,
	}

	r.GET("/health", s.healthHandler)

	return s
}

// limitBodySize caps request bodies so a single oversized payload cannot
// exhaust memory. Reads past the cap fail inside the handler's bind.
func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// healthHandler reports liveness plus database reachability. An unreachable
// database makes the whole process unhealthy: commands cannot commit without
// it.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("Health check failed: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to five seconds before returning.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "address", s.addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
