package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dreamiestore/dreamie-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса обменов
func (s *TradeService) SetupRoutes(app *fiber.App) {
	tradeGroup := app.Group("/api/trades")
	tradeGroup.Use(middleware.AuthMiddleware(s.jwtService))

	tradeGroup.Post("/", s.CreateTradeRequests)
	tradeGroup.Get("/", s.GetMyTrades)
	tradeGroup.Post("/:id/accept", s.AcceptTrade)
	tradeGroup.Post("/:id/box", s.BoxVillager)
	tradeGroup.Post("/:id/plot", s.ConfirmPlot)
	tradeGroup.Post("/:id/gates", s.OpenGates)
	tradeGroup.Post("/:id/complete", s.CompleteTrade)
	tradeGroup.Post("/:id/cancel", s.CancelTrade)
	tradeGroup.Post("/:id/expire", s.ExpireTrade)
	tradeGroup.Post("/:id/report", s.ReportTrade)
	tradeGroup.Delete("/:id", s.DeleteTradeRequest)
}
