package moderation

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dreamiestore/dreamie-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для панели модератора.
// Проверка прав выполняется в каждом обработчике, а не в middleware:
// статус модератора хранится в БД и может измениться между запросами.
func (s *ModerationService) SetupRoutes(app *fiber.App) {
	adminGroup := app.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(s.jwtService))

	adminGroup.Get("/users", s.GetUsers)
	adminGroup.Get("/trades/reported", s.GetReportedTrades)
	adminGroup.Post("/trades/:id/dismiss", s.DismissTradeReport)
	adminGroup.Post("/users/:userId/restrict", s.SetTradeRestriction)
	adminGroup.Post("/users/:userId/ban", s.SetBan)
	adminGroup.Post("/users/:userId/warn", s.WarnUser)
	adminGroup.Get("/reports", s.GetUserReports)
	adminGroup.Post("/reports/:id", s.UpdateUserReport)
	adminGroup.Get("/log", s.GetModerationLog)
}
