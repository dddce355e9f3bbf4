package realtime

import "github.com/gofiber/websocket/v2"

// WebSocketConn membungkus websocket.Conn supaya hub.go bebas dari import
// websocket (hub cuma butuh channel Send).
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}
