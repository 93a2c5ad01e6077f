package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed over the realtime channel.
const (
	EventCheer               = "cheer"
	EventCheerRemoved        = "cheer_removed"
	EventUnseenCheers        = "unseen_cheers"
	EventFriendRequest       = "friend_request"
	EventFriendAccepted      = "friend_accepted"
	EventAchievementUnlocked = "achievement_unlocked"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections. The channel is push-only: clients
// receive events and never send anything the server acts on.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a user, closing any
// previous one.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user. The connection is
// only dropped if it is still the registered one, so a reconnect that
// raced ahead is left alone.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[userID]; exists && current == conn {
		current.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// SendToUser sends a message to a specific user. Offline users are not an
// error; a dead connection is dropped.
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return nil
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NotifyCheer tells a post owner someone cheered (or un-cheered) their
// post, along with the fresh unseen badge count.
func (h *WSHub) NotifyCheer(ownerID string, from UserCard, drinkLogID string, cheered bool, count, unseen int) {
	eventType := EventCheer
	if !cheered {
		eventType = EventCheerRemoved
	}
	message := WSMessage{
		Type: eventType,
		Data: map[string]interface{}{
			"drink_log_id": drinkLogID,
			"from":         from,
			"count":        count,
			"unseen":       unseen,
		},
	}
	if err := h.SendToUser(ownerID, message); err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to push cheer event")
	}
}

// NotifyUnseenCheers pushes a fresh unseen badge count to a user.
func (h *WSHub) NotifyUnseenCheers(userID string, unseen int) {
	message := WSMessage{
		Type: EventUnseenCheers,
		Data: map[string]interface{}{"unseen": unseen},
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to push unseen count")
	}
}

// NotifyFriendRequest tells a user someone wants to be their friend.
func (h *WSHub) NotifyFriendRequest(addresseeID string, from UserCard, friendshipID string) {
	message := WSMessage{
		Type: EventFriendRequest,
		Data: map[string]interface{}{
			"friendship_id": friendshipID,
			"from":          from,
		},
	}
	if err := h.SendToUser(addresseeID, message); err != nil {
		log.Error().Err(err).Str("user_id", addresseeID).Msg("Failed to push friend request")
	}
}

// NotifyFriendAccepted tells the original requester their request was
// accepted.
func (h *WSHub) NotifyFriendAccepted(requesterID string, by UserCard) {
	message := WSMessage{
		Type: EventFriendAccepted,
		Data: map[string]interface{}{"by": by},
	}
	if err := h.SendToUser(requesterID, message); err != nil {
		log.Error().Err(err).Str("user_id", requesterID).Msg("Failed to push friend accepted")
	}
}

// NotifyAchievement tells a user they unlocked a medal.
func (h *WSHub) NotifyAchievement(userID string, achievement *models.Achievement) {
	message := WSMessage{
		Type: EventAchievementUnlocked,
		Data: map[string]interface{}{"achievement": achievement},
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to push achievement")
	}
}
