package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logger.Logger
}

func New(cfg config.ServerConfig, handler *gin.Engine, log logger.Logger) *Server {
	address := cfg.Address
	if address == "" {
		address = ":8080"
	}
	shutdown := config.GetDuration(cfg.ShutdownTimeout)
	if shutdown <= 0 {
		shutdown = 15 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadTimeout:       config.GetDuration(cfg.ReadTimeout),
			WriteTimeout:      config.GetDuration(cfg.WriteTimeout),
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdown,
		logger:          log,
	}
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
