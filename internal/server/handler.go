package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/thornpw/steuer/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(s.hub, conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// Send current state to the new client
	s.broadcaster.SendInitialState(client)

	go client.WritePump()
	go client.ReadPumpWithHandler(s.broadcaster)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Models())
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	m, ok := s.store.Lookup(model)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown model " + model})
		return
	}
	writeJSON(w, http.StatusOK, m.Clone())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Render(w, statusPage{
		Alias:   s.store.Alias(),
		Models:  s.store.Models(),
		Devices: s.broadcaster.States(),
		Clients: s.hub.Len(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("render status page")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
