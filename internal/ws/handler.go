package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"callboard/internal/config"
	"callboard/internal/presence"
	"callboard/internal/registry"
	"callboard/internal/router"
	"callboard/pkg/interfaces"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is deferred to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler authenticates incoming WebSocket connections and drives their
// lifecycle: registry upsert on connect, frame dispatch while open, and
// registry removal plus offline presence on close.
type Handler struct {
	verifier interfaces.TokenVerifier
	registry *registry.Registry
	presence *presence.Manager
	router   *router.Router
	cfg      *config.WebSocketConfig
}

// NewHandler creates a WebSocket handler with injected dependencies.
func NewHandler(verifier interfaces.TokenVerifier, reg *registry.Registry, pres *presence.Manager, rt *router.Router, cfg *config.WebSocketConfig) *Handler {
	if cfg == nil {
		cfg = config.DefaultConfig().WebSocket
	}
	return &Handler{
		verifier: verifier,
		registry: reg,
		presence: pres,
		router:   rt,
		cfg:      cfg,
	}
}

// HandleWebSocket upgrades an authenticated request to a WebSocket.
// The identity token travels as a query parameter; a missing or invalid
// token refuses the connection before the upgrade, so no frames are ever
// exchanged with an unauthenticated peer.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := h.verifier.Verify(token)
	if err != nil {
		log.Printf("Refused WebSocket connection: %v", err)
		http.Error(w, "Invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", userID, err)
		return
	}

	wsConn := NewConnection(conn, userID, h.cfg.BufferSize, h.cfg.WriteTimeout)

	// A reconnect for the same user replaces the old mapping; the
	// superseded handle is force-closed outside the registry lock so its
	// reads stop routing frames as this user.
	if prev := h.registry.Upsert(userID, wsConn); prev != nil {
		go func() {
			if err := prev.Close(); err != nil {
				log.Printf("Failed to close superseded connection for %s: %v", userID, err)
			}
		}()
	}

	log.Printf("User %s connected (conn %s)", userID, wsConn.ConnID())

	// Presence is best-effort: a failed write leaves the user connected
	// with their previous published status.
	if err := h.presence.HandleConnect(context.Background(), userID); err != nil {
		log.Printf("Failed to mark %s online: %v", userID, err)
	}

	go h.readPump(wsConn)
}

// readPump processes inbound frames one at a time in arrival order and
// owns the connection's teardown. Teardown runs exactly once per handle:
// the identity-checked removal keeps a stale close from evicting a newer
// connection for the same user.
func (h *Handler) readPump(conn *Connection) {
	userID := conn.UserID()

	defer func() {
		h.registry.RemoveIfCurrent(userID, conn)
		_ = conn.Close()
		if err := h.presence.HandleDisconnect(context.Background(), userID); err != nil {
			log.Printf("Failed to mark %s offline: %v", userID, err)
		}
		log.Printf("User %s disconnected (conn %s)", userID, conn.ConnID())
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for %s: %v", userID, err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := h.router.Dispatch(context.Background(), conn, data); err != nil {
			// The router has already answered the sender where the protocol
			// calls for it; a malformed frame is never fatal.
			log.Printf("Frame from %s not routed: %v", userID, err)
		}
	}
}
