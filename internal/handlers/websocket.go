package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub          *services.WSHub
	userService  *services.UserService
	cheerService *services.CheerService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	cheerService *services.CheerService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		userService:  userService,
		cheerService: cheerService,
	}
}

// HandleWebSocket handles WebSocket connections. The socket is push-only:
// the server delivers events and ignores anything the client writes.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	// Validate token
	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// Push the current unseen cheer badge so the client starts in sync.
	if unseen, err := h.cheerService.UnseenCount(r.Context(), userID); err == nil {
		h.hub.NotifyUnseenCheers(userID, unseen)
	} else {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load unseen cheer count")
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// Drain the connection until the client goes away. Client messages
	// carry no meaning on this channel.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}
	}
}
