package progress

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"pointeval/internal/logger"
	"pointeval/internal/store"
)

// Server exposes the live progress feed and a JSON dump of the results
// accumulated so far, for the external reporting tool.
type Server struct {
	hub      *Hub
	results  *store.Store
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, results *store.Store, log *logger.Logger) *Server {
	return &Server{
		hub:     hub,
		results: results,
		logger:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the progress server's HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/results", s.handleResults)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed: %v", err)
		return
	}

	s.hub.Register(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Unregister(conn)
			break
		}
	}
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.results.Snapshot()); err != nil {
		s.logger.Error("failed to encode results: %v", err)
	}
}
