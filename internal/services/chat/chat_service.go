package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/crypto"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/models"
	"github.com/dreamiestore/dreamie-api/internal/utils"
	"github.com/dreamiestore/dreamie-api/internal/websocket"
)

// ChatService представляет сервис для работы с переписками.
// Сообщения хранятся зашифрованными; сервер расшифровывает их
// при выдаче и никогда не отдает шифртекст клиенту.
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	hub        *websocket.Manager
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, hub *websocket.Manager) *ChatService {
	s := &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		hub:        hub,
	}

	// Индикаторы печати с клиентов ретранслируются участникам переписки
	hub.ResolvePeers = func(conversationID, senderID string) []string {
		ctx, cancel := db.GetContext()
		defer cancel()

		participants, err := conversationParticipants(ctx, conversationID)
		if err != nil {
			return nil
		}

		peers := make([]string, 0, len(participants))
		for _, p := range participants {
			if p.String() != senderID {
				peers = append(peers, p.String())
			}
		}
		return peers
	}

	return s
}

// GetMessages возвращает сообщения переписки по возрастанию времени.
// Непрочитанные входящие сообщения при этом помечаются прочитанными,
// собеседник получает событие message_read.
func (s *ChatService) GetMessages(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID := c.Params("conversationId")

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.checkAccess(ctx, conversationID, userUUID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, conversation_id, sender_id, receiver_id, content_enc, iv,
               read_at, report_flagged, report_reason, report_by, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC
    `, conversationID)
	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщений"})
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.ContentEnc, &m.IV,
			&m.ReadAt, &m.ReportFlagged, &m.ReportReason, &m.ReportBy, &m.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		// Расшифровка на выдаче; при любой ошибке вместо текста заглушка
		m.Decrypted = crypto.Decrypt(m.ContentEnc, m.IV, m.SenderID.String(), m.ReceiverID.String())
		m.ContentEnc = ""
		m.IV = ""

		m.Sender = db.GetUserInfo(ctx, m.SenderID)

		messages = append(messages, m)
	}

	// Входящие сообщения считаются прочитанными с момента открытия переписки
	tag, err := db.Pool.Exec(ctx, `
        UPDATE messages
        SET read_at = NOW()
        WHERE conversation_id = $1 AND receiver_id = $2 AND read_at IS NULL
    `, conversationID, userUUID)
	if err != nil {
		log.Printf("Ошибка отметки сообщений прочитанными: %v", err)
	} else if tag.RowsAffected() > 0 {
		s.hub.SendToConversation(conversationID, websocket.Event{
			Type:           websocket.EventMessageRead,
			ConversationID: conversationID,
			UserID:         userID,
		}, userID)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет сообщение в переписку.
// Текст шифруется до записи в БД; открытым он существует только
// в памяти обработчика.
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	senderID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID := c.Params("conversationId")

	var requestData struct {
		Text string `json:"text"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	text := strings.TrimSpace(requestData.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сообщение не может быть пустым"})
	}
	if len(text) > 2000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сообщение слишком длинное"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.checkAccess(ctx, conversationID, senderID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	receiverID, err := resolveReceiver(ctx, conversationID, senderID)
	if err != nil {
		log.Printf("Ошибка определения получателя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки сообщения"})
	}

	contentEnc, iv, err := crypto.Encrypt(text, senderID.String(), receiverID.String())
	if err != nil {
		log.Printf("Ошибка шифрования сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки сообщения"})
	}

	messageID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO messages
            (id, conversation_id, sender_id, receiver_id, content_enc, iv,
             read_at, report_flagged, report_reason, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULL, false, '', NOW())
    `, messageID, conversationID, senderID, receiverID, contentEnc, iv)
	if err != nil {
		log.Printf("Ошибка сохранения сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки сообщения"})
	}

	s.hub.SendToUser(receiverID.String(), websocket.Event{
		Type:           websocket.EventNewMessage,
		ConversationID: conversationID,
		MessageID:      messageID.String(),
		UserID:         userID,
	})

	if count, err := unreadConversations(ctx, receiverID); err == nil {
		s.hub.BroadcastUnreadCount(receiverID.String(), count)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message_id": messageID,
	})
}

// GetUnreadCount возвращает число переписок с непрочитанными сообщениями
func (s *ChatService) GetUnreadCount(c fiber.Ctx) error {
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

	count, err := unreadConversations(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка подсчета непрочитанных: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка подсчета непрочитанных"})
	}

	return c.JSON(fiber.Map{"count": count})
}

// Причины жалоб ограничены той же длиной, что и жалобы на обмены
const maxReportReasonLen = 1000

// reportReasonError проверяет причину жалобы, пустая строка - причина годна
func reportReasonError(reason string) string {
	if reason == "" {
		return "Причина жалобы не может быть пустой"
	}
	if len(reason) > maxReportReasonLen {
		return "Причина жалобы слишком длинная"
	}
	return ""
}

// ReportMessage подаёт жалобу на сообщение. Вместе с указанным
// сообщением помечаются до четырёх предыдущих в той же переписке,
// чтобы модератор видел контекст.
func (s *ChatService) ReportMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	reporterID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сообщения"})
	}

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if msg := reportReasonError(requestData.Reason); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var conversationID string
	var createdAt time.Time
	err = db.Pool.QueryRow(ctx, `
        SELECT conversation_id, created_at FROM messages WHERE id = $1
    `, messageID).Scan(&conversationID, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Сообщение не найдено"})
		}
		log.Printf("Ошибка запроса сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщения"})
	}

	if err := s.checkAccess(ctx, conversationID, reporterID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	// Помечаем само сообщение и до 4 предыдущих в переписке
	_, err = db.Pool.Exec(ctx, `
        UPDATE messages
        SET report_flagged = true, report_reason = $4, report_by = $5
        WHERE id IN (
            SELECT id FROM messages
            WHERE conversation_id = $1 AND (created_at < $2 OR id = $3)
            ORDER BY created_at DESC
            LIMIT 5
        )
    `, conversationID, createdAt, messageID, requestData.Reason, reporterID)
	if err != nil {
		log.Printf("Ошибка сохранения жалобы на сообщение: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения жалобы"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ReportConversation подаёт жалобу на собеседника
func (s *ChatService) ReportConversation(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	reporterID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID := c.Params("conversationId")

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if msg := reportReasonError(requestData.Reason); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.checkAccess(ctx, conversationID, reporterID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	reportedID, err := resolveReceiver(ctx, conversationID, reporterID)
	if err != nil {
		log.Printf("Ошибка определения собеседника: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения жалобы"})
	}

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO user_reports
            (id, reporter_id, reported_id, conversation_id, reason, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 'open', NOW(), NOW())
    `, uuid.New(), reporterID, reportedID, conversationID, requestData.Reason)
	if err != nil {
		log.Printf("Ошибка сохранения жалобы на пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения жалобы"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// checkAccess проверяет право пользователя на чтение и запись в переписку.
// Переписки admin_* доступны также модераторам.
func (s *ChatService) checkAccess(ctx context.Context, conversationID string, userID uuid.UUID) error {
	participants, err := conversationParticipants(ctx, conversationID)
	if err != nil {
		return errConversationNotFound
	}

	for _, p := range participants {
		if p == userID {
			return nil
		}
	}

	if strings.HasPrefix(conversationID, "admin_") {
		user, err := db.GetUserByID(ctx, userID)
		if err == nil && user.IsModerator() {
			return nil
		}
	}

	return errConversationForbidden
}

// conversationParticipants возвращает постоянных участников переписки.
// Ключ trade_<id> указывает на стороны обмена, admin_<id> - на автора
// тикета; модераторы входят в admin-переписки поверх этого списка.
func conversationParticipants(ctx context.Context, conversationID string) ([]uuid.UUID, error) {
	switch {
	case strings.HasPrefix(conversationID, "trade_"):
		tradeID, err := uuid.Parse(strings.TrimPrefix(conversationID, "trade_"))
		if err != nil {
			return nil, err
		}

		var requesterID uuid.UUID
		var acceptorID *uuid.UUID
		err = db.Pool.QueryRow(ctx, `
            SELECT requester_id, acceptor_id FROM trade_requests WHERE id = $1
        `, tradeID).Scan(&requesterID, &acceptorID)
		if err != nil {
			return nil, err
		}

		participants := []uuid.UUID{requesterID}
		if acceptorID != nil {
			participants = append(participants, *acceptorID)
		}
		return participants, nil

	case strings.HasPrefix(conversationID, "admin_"):
		ticketID, err := uuid.Parse(strings.TrimPrefix(conversationID, "admin_"))
		if err != nil {
			return nil, err
		}

		var authorID uuid.UUID
		err = db.Pool.QueryRow(ctx, `
            SELECT user_id FROM feedback_tickets WHERE id = $1
        `, ticketID).Scan(&authorID)
		if err != nil {
			return nil, err
		}

		return []uuid.UUID{authorID}, nil
	}

	return nil, errConversationNotFound
}

// resolveReceiver определяет получателя нового сообщения в переписке
func resolveReceiver(ctx context.Context, conversationID string, senderID uuid.UUID) (uuid.UUID, error) {
	participants, err := conversationParticipants(ctx, conversationID)
	if err != nil {
		return uuid.Nil, err
	}

	for _, p := range participants {
		if p != senderID {
			return p, nil
		}
	}

	if strings.HasPrefix(conversationID, "admin_") {
		// Сообщение от автора тикета адресуется дежурному модератору
		var moderatorID uuid.UUID
		err = db.Pool.QueryRow(ctx, `
            SELECT id FROM ac_users WHERE user_number IN (0, 2) ORDER BY user_number LIMIT 1
        `).Scan(&moderatorID)
		if err != nil {
			return uuid.Nil, err
		}
		return moderatorID, nil
	}

	return uuid.Nil, errConversationNotFound
}

// unreadConversations считает переписки с непрочитанными входящими
func unreadConversations(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
        SELECT COUNT(DISTINCT conversation_id) FROM messages
        WHERE receiver_id = $1 AND read_at IS NULL
    `, userID).Scan(&count)
	return count, err
}

var (
	errConversationNotFound  = chatError("Переписка не найдена")
	errConversationForbidden = chatError("Нет доступа к этой переписке")
)

type chatError string

func (e chatError) Error() string { return string(e) }
