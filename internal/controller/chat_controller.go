package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"ai-meeting-be/internal/dto"
	"ai-meeting-be/internal/pkg/logger"
	"ai-meeting-be/internal/pkg/serverutils"
	"ai-meeting-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("ws", c.ServeWs)
}

// ServeWs upgrades to a websocket and answers one chat request per inbound
// frame. Events stream back as JSON frames.
func (c *chatController) ServeWs(ctx *fiber.Ctx) error {
	// Browsers cannot set headers on websocket handshakes, so the token
	// arrives as a query param.
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	userId, err := serverutils.ParseWsToken(tokenStr)
	if err != nil {
		c.logger.Warn("ChatController", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ChatController", "Chat session started", map[string]interface{}{"user_id": userId})
		c.serveSession(conn)
		c.logger.Info("ChatController", "Chat session ended", map[string]interface{}{"user_id": userId})
	})(ctx)
}

func (c *chatController) serveSession(conn *websocket.Conn) {
	for {
		var req dto.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		if err := serverutils.ValidateRequest(req); err != nil {
			if writeErr := conn.WriteJSON(dto.StreamEvent{Type: dto.EventError, Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		sink := func(event dto.StreamEvent) error {
			return conn.WriteJSON(event)
		}

		if err := c.chatService.StreamAnswer(context.Background(), &req, sink); err != nil {
			// Sink failures mean the client is gone.
			return
		}
	}
}
