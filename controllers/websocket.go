package controllers

import (
	"almanara_go/middleware"
	ws "almanara_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	hub *ws.Hub
}

func NewWebSocketController(hub *ws.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// UpgradeGuard rejects non-websocket requests before the upgrade handler and
// stashes the auth context for the connection.
func (wc *WebSocketController) UpgradeGuard(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"error": "WebSocket upgrade required",
		})
	}
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}
	c.Locals("ws_user_id", claims.UserID)
	c.Locals("ws_topic", c.Query("topic"))
	return c.Next()
}

// Handler serves the upgraded websocket connection. ?topic=distribution
// subscribes the client to live distribution progress events.
func (wc *WebSocketController) Handler() fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		userID, _ := conn.Locals("ws_user_id").(uint)
		topic, _ := conn.Locals("ws_topic").(string)
		wc.hub.ServeFiberWS(conn, userID, topic)
	})
}

// GetStats reports connected client count for the ops dashboard.
func (wc *WebSocketController) GetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wc.hub.GetClientCount(),
	})
}
