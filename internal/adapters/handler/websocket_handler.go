package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/IANDYI/lifeclock-service/internal/adapters/middleware"
	"github.com/IANDYI/lifeclock-service/internal/adapters/websocket"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/google/uuid"
)

// WebSocketHandler streams live countdown ticks for stored estimates
type WebSocketHandler struct {
	hub            *websocket.Hub
	service        ports.EstimationService
	authMiddleware *middleware.AuthMiddleware
}

// NewWebSocketHandler creates a new countdown stream handler
func NewWebSocketHandler(hub *websocket.Hub, service ports.EstimationService, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		service:        service,
		authMiddleware: authMiddleware,
	}
}

// HandleCountdown handles GET /estimates/{estimate_id}/countdown.
// The connection is upgraded to a WebSocket that receives one tick frame per
// second against the estimate's fixed target date.
func (h *WebSocketHandler) HandleCountdown(w http.ResponseWriter, r *http.Request) {
	if h.authMiddleware != nil && h.authMiddleware.Enabled() {
		if !h.authorize(w, r) {
			return
		}
	}

	estimateID, err := uuid.Parse(r.PathValue("estimate_id"))
	if err != nil {
		http.Error(w, "invalid estimate ID", http.StatusBadRequest)
		return
	}

	result, _, err := h.service.Get(r.Context(), estimateID)
	if err != nil {
		http.Error(w, "estimate not found", http.StatusNotFound)
		return
	}

	if _, err := h.hub.Subscribe(w, r, estimateID.String(), result.DeathDate); err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	CountdownStreams.Inc()
}

// authorize validates the token from the Authorization header or, for
// browser WebSocket clients that cannot set headers, the query string
func (h *WebSocketHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	tokenString := ""
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		log.Printf("WebSocket connection rejected: missing token")
		http.Error(w, "unauthorized: missing token", http.StatusUnauthorized)
		return false
	}

	if _, err := h.authMiddleware.ValidateToken(tokenString); err != nil {
		log.Printf("WebSocket connection rejected: %v", err)
		http.Error(w, "unauthorized: invalid token", http.StatusUnauthorized)
		return false
	}
	return true
}
