package feedback

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dreamiestore/dreamie-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса обращений
func (s *FeedbackService) SetupRoutes(app *fiber.App) {
	feedbackGroup := app.Group("/api/tickets")
	feedbackGroup.Use(middleware.AuthMiddleware(s.jwtService))

	feedbackGroup.Post("/", s.CreateTicket)
	feedbackGroup.Get("/", s.GetMyTickets)
	feedbackGroup.Get("/all", s.GetAllTickets)
	feedbackGroup.Post("/:id/status", s.UpdateTicketStatus)
}
