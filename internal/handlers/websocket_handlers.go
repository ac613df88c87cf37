package handlers

import (
	"net"
	"net/http"
	"strings"

	"lms-realtime/internal/auth"
	"lms-realtime/internal/realtime"
	"lms-realtime/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	hub         *realtime.Hub
	router      *EventRouter
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, hub *realtime.Hub, router *EventRouter) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		hub:         hub,
		router:      router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// A connection token is optional: identity is canonically announced
	// through the join events. When the platform hands one out and a
	// secret is configured, a bad token is still a hard failure.
	var identity *realtime.Identity
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" && h.authService.Enabled() {
		claims, err := h.authService.VerifyToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		identity = &realtime.Identity{UserID: claims.UserID, Role: claims.Role, Name: claims.Name}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, h.router, clientIP(r), r.UserAgent(), identity)
	h.hub.Register(client)
	if identity != nil {
		logger.Info("Authenticated connection %s for user %s (%s)", client.SocketID(), identity.UserID, identity.Role)
	}

	go client.WritePump()
	go client.ReadPump()
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
