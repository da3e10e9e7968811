package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"callboard/internal/delivery"
	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// Directory is the slice of the directory store the HTTP surface needs.
type Directory interface {
	interfaces.PresenceStore
	HealthCheck(ctx context.Context) error
}

// Registry exposes connection counters without coupling to the concrete
// registry implementation.
type Registry interface {
	Stats() map[string]int
}

// Server is the HTTP surface next to the WebSocket endpoint: health and
// presence reads for operators and clients, and the internal deliver hook
// the persistence layer calls after storing a chat message. The REST
// surface for registration, login, history, and keys lives in that
// external service, not here.
type Server struct {
	directory Directory
	registry  Registry
	bridge    *delivery.Bridge
	router    *http.ServeMux
}

// NewServer creates the API server and sets up its routes.
func NewServer(directory Directory, registry Registry, bridge *delivery.Bridge) *Server {
	s := &Server{
		directory: directory,
		registry:  registry,
		bridge:    bridge,
		router:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
	s.router.Handle("/api/presence/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handlePresence))))
	s.router.Handle("/api/deliver", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleDeliver))))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// DeliverRequest is the persistence layer's handoff of a stored message
// for real-time push. The message body is opaque to this core.
type DeliverRequest struct {
	ReceiverID string          `json:"receiver_id"`
	Message    json.RawMessage `json:"message"`
}

type DeliverResponse struct {
	Delivered bool `json:"delivered"`
}

type PresenceResponse struct {
	Presence *types.PresenceRecord `json:"presence"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Directory   string         `json:"directory"`
	Connections map[string]int `json:"connections"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GET /api/presence/{userID}
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/presence/")
	if userID == "" || strings.Contains(userID, "/") {
		s.sendError(w, "User ID required", http.StatusBadRequest)
		return
	}

	record, err := s.directory.GetPresence(r.Context(), userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			s.sendError(w, "User not found", http.StatusNotFound)
		} else {
			s.sendError(w, "Failed to read presence", http.StatusInternalServerError)
		}
		return
	}

	_ = json.NewEncoder(w).Encode(PresenceResponse{Presence: record})
}

// POST /api/deliver — push an already-persisted message to its recipient's
// open connection. An offline recipient is an expected outcome: the push
// is dropped and the message stays reachable through the history path.
func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DeliverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ReceiverID == "" {
		s.sendError(w, "receiver_id is required", http.StatusBadRequest)
		return
	}
	if len(req.Message) == 0 {
		s.sendError(w, "message is required", http.StatusBadRequest)
		return
	}

	err := s.bridge.Deliver(req.ReceiverID, req.Message)
	if err != nil && !errors.Is(err, delivery.ErrReceiverOffline) {
		s.sendError(w, "Failed to deliver message", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(DeliverResponse{Delivered: err == nil})
}

// GET /health
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	directoryStatus := "healthy"
	if err := s.directory.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		directoryStatus = fmt.Sprintf("error: %v", err)
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Directory:   directoryStatus,
		Connections: s.registry.Stats(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
