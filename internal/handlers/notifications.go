package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/realtime"
)

type NotificationHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewNotificationHandler(db *gorm.DB, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{DB: db, Hub: hub}
}

// publishNotification mirrors a hub delivery onto the per-user redis
// channel so instances behind the load balancer see it too.
func publishNotification(c *fiber.Ctx, rdb *redis.Client, userID uuid.UUID, data interface{}) {
	if rdb == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling notification payload: %v", err)
		return
	}
	if err := rdb.Publish(c.Context(), "notifications:"+userID.String(), payload).Err(); err != nil {
		log.Printf("Redis publish failed for user %s: %v", userID, err)
	}
}

// WebSocketHandler keeps one socket per user for status-change pushes
// (autentikasi via query param, bukan JWT middleware).
func (h *NotificationHandler) WebSocketHandler(c *websocket.Conn) {
	userID := c.Query("user_id")
	if userID == "" {
		log.Println("WebSocket: user_id parameter missing")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: invalid user_id:", userID, "error:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", userID)

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	// Send messages from hub to client
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// Read messages from client (keep connection alive)
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", userID, err)
			break
		}

		// Handle ping/pong
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
