package chat

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dreamiestore/dreamie-api/internal/db"
)

// Присутствие аппроксимируется по last_seen_at: клиент шлёт heartbeat
// каждые 30 секунд, пока вкладка открыта, и при каждом нажатии клавиши
// в поле ввода. Отдельного состояния "печатает" на сервере нет.
const (
	onlineWindow    = 3 * time.Minute
	typingWindow    = 8 * time.Second
	heartbeatPeriod = 30 * time.Second
)

// IsOnline сообщает, считается ли пользователь в сети
func IsOnline(lastSeen *time.Time, now time.Time) bool {
	return lastSeen != nil && now.Sub(*lastSeen) < onlineWindow
}

// IsTyping сообщает, печатает ли пользователь прямо сейчас.
// Печатающий всегда онлайн; обратное неверно.
func IsTyping(lastSeen *time.Time, now time.Time) bool {
	return IsOnline(lastSeen, now) && now.Sub(*lastSeen) < typingWindow
}

// Heartbeat обновляет отметку активности пользователя
func (s *ChatService) Heartbeat(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := db.UpdateLastSeen(ctx, userUUID); err != nil {
		log.Printf("Ошибка обновления last_seen: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления активности"})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"heartbeat_period": int(heartbeatPeriod.Seconds()),
	})
}

// GetPresence возвращает статус присутствия другого пользователя
func (s *ChatService) GetPresence(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	lastSeen, err := db.GetLastSeen(ctx, targetID)
	if err != nil {
		log.Printf("Ошибка запроса last_seen: %v", err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	now := time.Now()
	return c.JSON(fiber.Map{
		"user_id":   targetID,
		"online":    IsOnline(lastSeen, now),
		"typing":    IsTyping(lastSeen, now),
		"last_seen": lastSeen,
	})
}
