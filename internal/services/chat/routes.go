package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dreamiestore/dreamie-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса переписок
func (s *ChatService) SetupRoutes(app *fiber.App) {
	chatGroup := app.Group("/api/chats")
	chatGroup.Use(middleware.AuthMiddleware(s.jwtService))

	chatGroup.Get("/unread", s.GetUnreadCount)
	chatGroup.Post("/heartbeat", s.Heartbeat)
	chatGroup.Get("/presence/:userId", s.GetPresence)
	chatGroup.Get("/:conversationId/messages", s.GetMessages)
	chatGroup.Post("/:conversationId/messages", s.SendMessage)
	chatGroup.Post("/:conversationId/report", s.ReportConversation)
	chatGroup.Post("/messages/:messageId/report", s.ReportMessage)
}
