package server

import (
	"context"
	"net/http"

	"github.com/thornpw/steuer/internal/hub"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	store       *mapping.Store
	metrics     *Metrics
	page        *pageRenderer
	addr        string
	log         *logger.Logger
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, store *mapping.Store, metrics *Metrics, addr string, log *logger.Logger) *Server {
	return &Server{
		hub:         h,
		broadcaster: b,
		store:       store,
		metrics:     metrics,
		page:        newPageRenderer(),
		addr:        addr,
		log:         logger.OrNop(log),
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/mappings", s.handleModels)
	mux.HandleFunc("GET /api/mappings/{model}", s.handleModel)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /{$}", s.handleStatus)

	return mux
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.log.Info().Str("addr", s.addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info().Msg("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
