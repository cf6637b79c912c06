package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/services/chat"
	"github.com/dreamiestore/dreamie-api/internal/services/feedback"
	"github.com/dreamiestore/dreamie-api/internal/services/moderation"
	"github.com/dreamiestore/dreamie-api/internal/services/profile"
	"github.com/dreamiestore/dreamie-api/internal/services/trade"
	"github.com/dreamiestore/dreamie-api/internal/utils"
	"github.com/dreamiestore/dreamie-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Dreamie Store API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Общий менеджер WebSocket-событий
	hub := websocket.NewManager()
	defer hub.Shutdown()

	// Создаём сервисы
	tradeService := trade.NewTradeService(cfg, hub)
	chatService := chat.NewChatService(cfg, hub)
	profileService := profile.NewProfileService(cfg)
	moderationService := moderation.NewModerationService(cfg)
	feedbackService := feedback.NewFeedbackService(cfg)

	// Регистрируем маршруты
	tradeService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	profileService.SetupRoutes(app)
	moderationService.SetupRoutes(app)
	feedbackService.SetupRoutes(app)

	// WebSocket живёт на отдельном слушателе
	wsHandler := websocket.NewHandler(hub, utils.NewJWTService(cfg.JWTSecret))
	go func() {
		if err := wsHandler.ListenAndServe(cfg.WSAddr); err != nil {
			log.Fatalf("❌ Ошибка WebSocket слушателя: %v", err)
		}
	}()

	// Запускаем сервер
	log.Printf("✅ Dreamie Store API запущен на %s", cfg.HTTPAddr)
	log.Fatal(app.Listen(cfg.HTTPAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
