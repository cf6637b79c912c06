package profile

import (
	"context"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/utils"
)

// ProfileService представляет сервис для работы с профилями пользователей
type ProfileService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewProfileService создает новый экземпляр ProfileService
func NewProfileService(cfg *config.Config) *ProfileService {
	return &ProfileService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMyProfile возвращает профиль текущего пользователя
func (s *ProfileService) GetMyProfile(c fiber.Ctx) error {
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

	user, err := db.GetUserByID(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса профиля: %v", err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// ToggleListItem добавляет жителя в один из списков профиля или
// убирает его оттуда. Список задается параметром list:
// owned, favourites или wishlist.
func (s *ProfileService) ToggleListItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		List         string `json:"list"`
		VillagerName string `json:"villager_name"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.VillagerName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не указано имя жителя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	present, err := db.ToggleListItem(ctx, userUUID, requestData.List, requestData.VillagerName)
	if err != nil {
		if err == db.ErrUnknownList {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неизвестный список: " + requestData.List})
		}
		log.Printf("Ошибка переключения списка %s: %v", requestData.List, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления профиля"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"list":    requestData.List,
		"present": present,
	})
}

// GetTopTraders возвращает таблицу лидеров по отданным жителям
func (s *ProfileService) GetTopTraders(c fiber.Ctx) error {
	return s.leaderboard(c, db.TopTraders)
}

// GetTopVerifiedOwners возвращает таблицу лидеров по полученным жителям.
// Владение подтверждено завершёнными обменами, а не самоописанием профиля.
func (s *ProfileService) GetTopVerifiedOwners(c fiber.Ctx) error {
	return s.leaderboard(c, db.TopVerifiedOwners)
}

func (s *ProfileService) leaderboard(c fiber.Ctx, query func(ctx context.Context, limit int) ([]db.LeaderboardEntry, error)) error {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Параметр limit должен быть от 1 до 100"})
		}
		limit = n
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	entries, err := query(ctx, limit)
	if err != nil {
		log.Printf("Ошибка запроса таблицы лидеров: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения таблицы лидеров"})
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"count":   len(entries),
	})
}
