// Package admin serves a small loopback HTTP API for inspecting and driving a
// running relay server.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vcontroller/internal/logging"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the admin API on addr. Pass a 127.0.0.1 address; the API
// has no authentication.
func NewServer(addr string, h *Handler, logger *slog.Logger) *Server {
	logger = logging.OrDefault(logger)
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter wires the admin routes on a fresh gin engine.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logging.OrDefault(logger)))
	h.RegisterRoutes(r.Group("/"))
	return r
}

// ListenAndServe blocks until Shutdown is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("admin_server_listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("admin_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
