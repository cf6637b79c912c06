package moderation

import (
	"context"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/models"
	"github.com/dreamiestore/dreamie-api/internal/utils"
)

// ModerationService представляет сервис панели модератора.
// Каждое действие модератора оставляет строку в журнале модерации;
// журнал только пополняется, правка и удаление записей не предусмотрены.
type ModerationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewModerationService создает новый экземпляр ModerationService
func NewModerationService(cfg *config.Config) *ModerationService {
	return &ModerationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// requireModerator проверяет, что действующий пользователь - модератор.
// Возвращает его ID или nil, если ответ уже отправлен.
func (s *ModerationService) requireModerator(c fiber.Ctx, ctx context.Context) *uuid.UUID {
	userID := c.Locals("userID").(string)
	if userID == "" {
		c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
		return nil
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
		return nil
	}

	user, err := db.GetUserByID(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса пользователя: %v", err)
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки прав"})
		return nil
	}

	if !user.IsModerator() {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Недостаточно прав"})
		return nil
	}

	return &userUUID
}

// GetUsers возвращает всех пользователей для панели модератора
func (s *ModerationService) GetUsers(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		log.Printf("Ошибка запроса пользователей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения пользователей"})
	}

	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// GetReportedTrades возвращает обмены с поданными жалобами
func (s *ModerationService) GetReportedTrades(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, requester_id, acceptor_id, villager_name, report_reason, report_by,
               completed_at, created_at
        FROM trade_requests
        WHERE reported = true
        ORDER BY completed_at DESC NULLS LAST
    `)
	if err != nil {
		log.Printf("Ошибка запроса обменов с жалобами: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения жалоб"})
	}
	defer rows.Close()

	var trades []fiber.Map
	for rows.Next() {
		var t models.TradeRequest
		if err := rows.Scan(
			&t.ID, &t.RequesterID, &t.AcceptorID, &t.VillagerName,
			&t.ReportReason, &t.ReportBy, &t.CompletedAt, &t.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		entry := fiber.Map{
			"trade":     t,
			"requester": db.GetUserInfo(ctx, t.RequesterID),
		}
		if t.AcceptorID != nil {
			entry["acceptor"] = db.GetUserInfo(ctx, *t.AcceptorID)
		}
		trades = append(trades, entry)
	}

	return c.JSON(fiber.Map{"trades": trades, "count": len(trades)})
}

// DismissTradeReport снимает жалобу с обмена. Сброс флага и запись
// в журнал модерации выполняются одной транзакцией.
func (s *ModerationService) DismissTradeReport(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var reportedID uuid.UUID
	err = tx.QueryRow(ctx, `
        UPDATE trade_requests
        SET reported = false, report_reason = '', report_by = NULL
        WHERE id = $1 AND reported = true
        RETURNING COALESCE(acceptor_id, requester_id)
    `, tradeID).Scan(&reportedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Жалоба не найдена"})
		}
		log.Printf("Ошибка снятия жалобы: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка снятия жалобы"})
	}

	if err = logAction(ctx, tx, *moderatorID, reportedID, models.ActionDismissReport, "", "trade_"+tradeID.String()); err != nil {
		log.Printf("Ошибка записи в журнал модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи в журнал"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// SetTradeRestriction включает или выключает ограничение обменов для пользователя
func (s *ModerationService) SetTradeRestriction(c fiber.Ctx) error {
	return s.setUserFlag(c, "trade_restricted", models.ActionRestrict, models.ActionUnrestrict)
}

// SetBan блокирует или разблокирует аккаунт
func (s *ModerationService) SetBan(c fiber.Ctx) error {
	return s.setUserFlag(c, "banned", models.ActionBan, models.ActionUnban)
}

// setUserFlag выставляет булев флаг на пользователе и пишет журнал
func (s *ModerationService) setUserFlag(c fiber.Ctx, column string, onAction, offAction models.ModerationAction) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Enabled bool   `json:"enabled"`
		Reason  string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Модератор не может ограничить сам себя
	if targetID == *moderatorID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя применить действие к самому себе"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE ac_users SET `+column+` = $2, updated_at = NOW() WHERE id = $1
    `, targetID, requestData.Enabled)
	if err != nil {
		log.Printf("Ошибка обновления флага %s: %v", column, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления пользователя"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	action := onAction
	if !requestData.Enabled {
		action = offAction
	}
	if err = logAction(ctx, tx, *moderatorID, targetID, action, requestData.Reason, ""); err != nil {
		log.Printf("Ошибка записи в журнал модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи в журнал"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true, "action": action})
}

// WarnUser выносит пользователю предупреждение.
// Состояние аккаунта не меняется, остается только след в журнале.
func (s *ModerationService) WarnUser(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Причина предупреждения не может быть пустой"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	if err = logAction(ctx, tx, *moderatorID, targetID, models.ActionWarn, requestData.Reason, ""); err != nil {
		log.Printf("Ошибка записи в журнал модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи в журнал"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetUserReports возвращает жалобы на пользователей
func (s *ModerationService) GetUserReports(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	status := c.Query("status", string(models.UserReportOpen))

	rows, err := db.Pool.Query(ctx, `
        SELECT id, reporter_id, reported_id, conversation_id, reason, status, created_at, updated_at
        FROM user_reports
        WHERE status = $1
        ORDER BY created_at DESC
    `, status)
	if err != nil {
		log.Printf("Ошибка запроса жалоб: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения жалоб"})
	}
	defer rows.Close()

	var reports []models.UserReport
	for rows.Next() {
		var r models.UserReport
		if err := rows.Scan(
			&r.ID, &r.ReporterID, &r.ReportedID, &r.ConversationID,
			&r.Reason, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}
		reports = append(reports, r)
	}

	return c.JSON(fiber.Map{"reports": reports, "count": len(reports)})
}

// UpdateUserReport переводит жалобу на пользователя в новый статус
func (s *ModerationService) UpdateUserReport(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID жалобы"})
	}

	var requestData struct {
		Status models.UserReportStatus `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	var current models.UserReportStatus
	var reportedID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
        SELECT status, reported_id FROM user_reports WHERE id = $1
    `, reportID).Scan(&current, &reportedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Жалоба не найдена"})
		}
		log.Printf("Ошибка запроса жалобы: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения жалобы"})
	}

	if !models.UserReportTransitionAllowed(current, requestData.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Недопустимый переход статуса жалобы",
			"current": current,
		})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE user_reports SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = $3
    `, reportID, requestData.Status, current)
	if err != nil {
		log.Printf("Ошибка обновления жалобы: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления жалобы"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Жалоба уже обработана"})
	}

	if requestData.Status == models.UserReportDismissed {
		if err = logAction(ctx, tx, *moderatorID, reportedID, models.ActionDismissReport, "", "report_"+reportID.String()); err != nil {
			log.Printf("Ошибка записи в журнал модерации: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи в журнал"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true, "status": requestData.Status})
}

// GetModerationLog возвращает последние записи журнала модерации
func (s *ModerationService) GetModerationLog(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	moderatorID := s.requireModerator(c, ctx)
	if moderatorID == nil {
		return nil
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Параметр limit должен быть от 1 до 500"})
		}
		limit = n
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, moderator_id, target_id, action, title, reason, meta, created_at
        FROM moderation_log
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		log.Printf("Ошибка запроса журнала модерации: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения журнала"})
	}
	defer rows.Close()

	var entries []models.ModerationLogEntry
	for rows.Next() {
		var e models.ModerationLogEntry
		if err := rows.Scan(&e.ID, &e.ModeratorID, &e.TargetID, &e.Action, &e.Title, &e.Reason, &e.Meta, &e.CreatedAt); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}
		entries = append(entries, e)
	}

	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}

// logAction добавляет запись в журнал модерации внутри транзакции.
// reason - причина со слов модератора, meta - контекст действия
// (например, id обмена или жалобы).
func logAction(ctx context.Context, tx pgx.Tx, moderatorID, targetID uuid.UUID, action models.ModerationAction, reason, meta string) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO moderation_log (id, moderator_id, target_id, action, title, reason, meta, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
    `, uuid.New(), moderatorID, targetID, string(action), action.Title(), reason, meta)
	return err
}
