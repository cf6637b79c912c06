package feedback

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/crypto"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/models"
	"github.com/dreamiestore/dreamie-api/internal/utils"
)

// FeedbackService представляет сервис обращений: вопросы в поддержку
// и предложения по улучшению. Каждый тикет открывает псевдо-переписку
// admin_<id>, в которой пользователь и модераторы обмениваются
// сообщениями как в обычном чате.
type FeedbackService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewFeedbackService создает новый экземпляр FeedbackService
func NewFeedbackService(cfg *config.Config) *FeedbackService {
	return &FeedbackService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateTicket создает обращение и первое сообщение переписки с админом
func (s *FeedbackService) CreateTicket(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Category models.TicketCategory `json:"category"`
		Message  string                `json:"message"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if !models.ValidTicketCategory(requestData.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимая категория обращения"})
	}

	message := strings.TrimSpace(requestData.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Текст обращения не может быть пустым"})
	}
	if len(message) > 2000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Текст обращения слишком длинный"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Первое сообщение адресуется дежурному модератору
	var moderatorID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
        SELECT id FROM ac_users WHERE user_number IN (0, 2) ORDER BY user_number LIMIT 1
    `).Scan(&moderatorID)
	if err != nil {
		log.Printf("Ошибка поиска модератора: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания обращения"})
	}

	ticket := models.Ticket{
		ID:       uuid.New(),
		UserID:   userUUID,
		Category: requestData.Category,
		Message:  message,
		Status:   models.TicketStatusOpen,
	}

	contentEnc, iv, err := crypto.Encrypt(message, userUUID.String(), moderatorID.String())
	if err != nil {
		log.Printf("Ошибка шифрования обращения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания обращения"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO feedback_tickets (id, user_id, category, message, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
    `, ticket.ID, ticket.UserID, string(ticket.Category), ticket.Message, string(ticket.Status))
	if err != nil {
		log.Printf("Ошибка создания обращения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания обращения"})
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO messages
            (id, conversation_id, sender_id, receiver_id, content_enc, iv,
             read_at, report_flagged, report_reason, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULL, false, '', NOW())
    `, uuid.New(), ticket.ConversationID(), userUUID, moderatorID, contentEnc, iv)
	if err != nil {
		log.Printf("Ошибка создания первого сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания обращения"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"ticket_id":       ticket.ID,
		"conversation_id": ticket.ConversationID(),
	})
}

// GetMyTickets возвращает обращения текущего пользователя
func (s *FeedbackService) GetMyTickets(c fiber.Ctx) error {
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

	return s.listTickets(c, ctx, `
        SELECT id, user_id, category, message, status, created_at, updated_at
        FROM feedback_tickets
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userUUID)
}

// GetAllTickets возвращает все обращения. Доступно только модераторам.
func (s *FeedbackService) GetAllTickets(c fiber.Ctx) error {
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
	if err != nil || !user.IsModerator() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Недостаточно прав"})
	}

	return s.listTickets(c, ctx, `
        SELECT id, user_id, category, message, status, created_at, updated_at
        FROM feedback_tickets
        ORDER BY created_at DESC
    `)
}

// UpdateTicketStatus переводит обращение в новый статус.
// Наборы статусов закрыты по категориям: вопросу в поддержку нельзя
// присвоить статус предложения и наоборот.
func (s *FeedbackService) UpdateTicketStatus(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ticketID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID обращения"})
	}

	var requestData struct {
		Status models.TicketStatus `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByID(ctx, userUUID)
	if err != nil || !user.IsModerator() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Недостаточно прав"})
	}

	var category models.TicketCategory
	err = db.Pool.QueryRow(ctx, `
        SELECT category FROM feedback_tickets WHERE id = $1
    `, ticketID).Scan(&category)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Обращение не найдено"})
		}
		log.Printf("Ошибка запроса обращения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения обращения"})
	}

	if !models.TicketStatusAllowed(category, requestData.Status) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":    "Недопустимый статус для этой категории обращения",
			"category": category,
		})
	}

	_, err = db.Pool.Exec(ctx, `
        UPDATE feedback_tickets SET status = $2, updated_at = NOW() WHERE id = $1
    `, ticketID, string(requestData.Status))
	if err != nil {
		log.Printf("Ошибка обновления обращения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления обращения"})
	}

	return c.JSON(fiber.Map{"success": true, "status": requestData.Status})
}

func (s *FeedbackService) listTickets(c fiber.Ctx, ctx context.Context, query string, args ...interface{}) error {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса обращений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения обращений"})
	}
	defer rows.Close()

	var tickets []fiber.Map
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Category, &t.Message, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		tickets = append(tickets, fiber.Map{
			"ticket":          t,
			"conversation_id": t.ConversationID(),
			"user":            db.GetUserInfo(ctx, t.UserID),
		})
	}

	return c.JSON(fiber.Map{"tickets": tickets, "count": len(tickets)})
}
