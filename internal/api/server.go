// Package api serves the companion HTTP endpoint: a status snapshot
// for scripting and a websocket feed of semantic events and program
// executions for monitoring UIs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dshills/pedald/internal/button"
	"github.com/dshills/pedald/internal/engine"
	"github.com/dshills/pedald/internal/logging"
)

// ButtonStatus is one button's slice of the status snapshot.
type ButtonStatus struct {
	ID        string   `json:"id"`
	Threshold string   `json:"hold_threshold"`
	Held      []string `json:"held_keys"`
}

// Status is the payload of GET /api/status.
type Status struct {
	Version string         `json:"version"`
	Source  string         `json:"source"`
	Uptime  string         `json:"uptime"`
	Buttons []ButtonStatus `json:"buttons"`
	Engine  engine.Stats   `json:"engine"`
}

// StatusFunc supplies the current status snapshot.
type StatusFunc func() Status

// Server is the companion HTTP and websocket endpoint.
type Server struct {
	log    *logging.Logger
	status StatusFunc
	hub    *hub
	srv    *http.Server
	ln     net.Listener
}

// NewServer creates a server that answers on addr.
func NewServer(addr string, status StatusFunc, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Null
	}
	log = log.WithComponent("api")

	s := &Server{
		log:    log,
		status: status,
		hub:    newHub(log),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.hub.handleWebSocket)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.recoverMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in the background. The listen error is
// returned synchronously so a bad address fails startup; later serve
// errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go s.hub.run()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve: %v", err)
		}
	}()
	s.log.Info("listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound listen address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops the server and disconnects every feed client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.stop()
	return s.srv.Shutdown(ctx)
}

// PublishEvent pushes a semantic event to every feed client.
func (s *Server) PublishEvent(ev button.Event) {
	s.hub.broadcast(feedMessage{
		Type:   "button_event",
		Button: ev.Button.String(),
		Kind:   ev.Kind.String(),
		Time:   ev.Time.Format(time.RFC3339Nano),
	})
}

// PublishNotice pushes an engine execution notice to every feed
// client.
func (s *Server) PublishNotice(n engine.Notice) {
	msg := feedMessage{
		Type:     "execution",
		Stage:    string(n.Stage),
		Dispatch: n.Dispatch,
		Button:   n.Button.String(),
		Kind:     n.Kind.String(),
		Token:    n.Token,
	}
	if n.Err != nil {
		msg.Error = n.Err.Error()
	}
	if n.Duration > 0 {
		msg.Duration = n.Duration.String()
	}
	s.hub.broadcast(msg)
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic serving %s: %v", r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		s.log.Error("encode status: %v", err)
	}
}
