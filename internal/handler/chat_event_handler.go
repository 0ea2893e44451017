package handler

import (
	"context"
	"encoding/json"
	"os"

	"ai-tutoring-be/internal/pkg/logger"
	internalWS "ai-tutoring-be/internal/websocket"
	"ai-tutoring-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChatEventHandler bridges the event bus to live websocket connections:
// every session/message lifecycle event is pushed to its owning user.
type ChatEventHandler struct {
	publisher *events.Publisher
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewChatEventHandler(pub *events.Publisher, hub *internalWS.Hub, log logger.ILogger) *ChatEventHandler {
	return &ChatEventHandler{
		publisher: pub,
		hub:       hub,
		logger:    log,
	}
}

func (h *ChatEventHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/v1/ws", h.ServeWs)
}

// ServeWs upgrades the connection after validating the JWT. Browsers cannot
// set headers on websocket handshakes, so the token may arrive as a query
// param instead.
func (h *ChatEventHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, userID)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// Run consumes the event topic and forwards each envelope to the user named
// in its payload. Blocks until ctx is done or the bus closes.
func (h *ChatEventHandler) Run(ctx context.Context) {
	msgs, err := h.publisher.Subscribe(ctx)
	if err != nil {
		h.logger.Error("ChatEventHandler", "failed to subscribe to event topic", map[string]interface{}{"error": err.Error()})
		return
	}

	for msg := range msgs {
		var env events.Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			h.logger.Warn("ChatEventHandler", "bad event payload", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		if userID, ok := envelopeUserID(env); ok {
			h.hub.Send(userID, msg.Payload)
		}
		msg.Ack()
	}
}

func envelopeUserID(env events.Envelope) (uuid.UUID, bool) {
	raw, ok := env.Data["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
