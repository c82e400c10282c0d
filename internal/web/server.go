package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"worktimer/internal/config"
)

type Server struct {
	config  *config.Config
	handler *Handler
	server  *http.Server
	logger  zerolog.Logger
}

func NewServer(cfg *config.Config, ctrl Controller, reporter HistoryReporter, customPort int, logger zerolog.Logger) *Server {
	handler := NewHandler(ctrl, reporter, logger)
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		logger:  logger.With().Str("component", "web").Logger(),
	}
}

// Start serves until Shutdown. http.ErrServerClosed is returned after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting web server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
