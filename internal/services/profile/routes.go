package profile

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dreamiestore/dreamie-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса профилей
func (s *ProfileService) SetupRoutes(app *fiber.App) {
	profileGroup := app.Group("/api/profile")
	profileGroup.Use(middleware.AuthMiddleware(s.jwtService))

	profileGroup.Get("/me", s.GetMyProfile)
	profileGroup.Post("/lists/toggle", s.ToggleListItem)
	profileGroup.Get("/leaderboard/traders", s.GetTopTraders)
	profileGroup.Get("/leaderboard/owners", s.GetTopVerifiedOwners)
}
