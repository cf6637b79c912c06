package trade

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreamiestore/dreamie-api/internal/config"
	"github.com/dreamiestore/dreamie-api/internal/db"
	"github.com/dreamiestore/dreamie-api/internal/models"
	"github.com/dreamiestore/dreamie-api/internal/utils"
	"github.com/dreamiestore/dreamie-api/internal/websocket"
)

// TradeService представляет сервис для работы с обменами жителями
type TradeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	hub        *websocket.Manager
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(cfg *config.Config, hub *websocket.Manager) *TradeService {
	return &TradeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		hub:        hub,
	}
}

// CreateTradeRequests создает заявки на обмен для корзины жителей.
// Для жителей, по которым у пользователя уже есть активная заявка
// (open или ongoing), новая строка не создается.
func (s *TradeService) CreateTradeRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	requesterID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Requests []struct {
			VillagerName string           `json:"villager_name"`
			OfferText    string           `json:"offer_text"`
			OfferAmount  *int64           `json:"offer_amount"`
			OfferKind    models.OfferKind `json:"offer_kind"`
		} `json:"requests"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if len(requestData.Requests) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Корзина пуста"})
	}

	for _, r := range requestData.Requests {
		if r.VillagerName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не указано имя жителя"})
		}
		if !models.ValidOfferKind(r.OfferKind) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимая валюта предложения"})
		}
		if r.OfferAmount != nil && *r.OfferAmount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сумма предложения не может быть отрицательной"})
		}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Ограниченные и заблокированные пользователи не могут создавать заявки
	if err := s.checkNotRestricted(ctx, requesterID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	// Собираем жителей, по которым уже есть активные заявки
	villagers := make([]string, 0, len(requestData.Requests))
	for _, r := range requestData.Requests {
		villagers = append(villagers, r.VillagerName)
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT villager_name FROM trade_requests
        WHERE requester_id = $1 AND status IN ('open', 'ongoing') AND villager_name = ANY($2)
    `, requesterID, villagers)
	if err != nil {
		log.Printf("Ошибка проверки существующих заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существующих заявок"})
	}

	alreadyActive := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			log.Printf("Ошибка сканирования строки: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существующих заявок"})
		}
		alreadyActive[name] = true
	}
	rows.Close()

	// Начинаем транзакцию
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	created := make([]uuid.UUID, 0, len(requestData.Requests))
	skipped := make([]string, 0)

	for _, r := range requestData.Requests {
		if alreadyActive[r.VillagerName] {
			skipped = append(skipped, r.VillagerName)
			continue
		}

		tradeID := uuid.New()
		_, err = tx.Exec(ctx, `
            INSERT INTO trade_requests
                (id, requester_id, villager_name, offer_text, offer_amount, offer_kind,
                 status, trade_step, plot_available, dodo_code, reported, report_reason,
                 created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, 'open', 1, false, '', false, '', NOW(), NOW())
        `, tradeID, requesterID, r.VillagerName, r.OfferText, r.OfferAmount, string(r.OfferKind))
		if err != nil {
			log.Printf("Ошибка создания заявки на обмен: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения заявки"})
		}
		created = append(created, tradeID)
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"created": created,
		"skipped": skipped,
	})
}

// GetMyTrades возвращает заявки пользователя по вкладке:
// incoming - открытые заявки на жителей, которыми он владеет;
// my - его собственные открытые заявки;
// ongoing - текущие обмены с его участием;
// history - завершённые обмены за последние 28 дней.
func (s *TradeService) GetMyTrades(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tab := c.Query("tab", "ongoing")

	ctx, cancel := db.GetContext()
	defer cancel()

	var query string
	var args []interface{}

	switch tab {
	case "incoming":
		query = `
            SELECT t.id, t.requester_id, t.acceptor_id, t.villager_name, t.offer_text,
                   t.offer_amount, t.offer_kind, t.status, t.trade_step, t.plot_available,
                   t.dodo_code, t.completed_at, t.reported, t.report_reason, t.report_by,
                   t.created_at, t.updated_at
            FROM trade_requests t
            WHERE t.status = 'open'
              AND t.requester_id <> $1
              AND t.villager_name = ANY(SELECT unnest(owned) FROM ac_users WHERE id = $1)
            ORDER BY t.created_at DESC
        `
		args = []interface{}{userUUID}
	case "my":
		query = `
            SELECT t.id, t.requester_id, t.acceptor_id, t.villager_name, t.offer_text,
                   t.offer_amount, t.offer_kind, t.status, t.trade_step, t.plot_available,
                   t.dodo_code, t.completed_at, t.reported, t.report_reason, t.report_by,
                   t.created_at, t.updated_at
            FROM trade_requests t
            WHERE t.requester_id = $1 AND t.status = 'open'
            ORDER BY t.created_at DESC
        `
		args = []interface{}{userUUID}
	case "history":
		query = `
            SELECT t.id, t.requester_id, t.acceptor_id, t.villager_name, t.offer_text,
                   t.offer_amount, t.offer_kind, t.status, t.trade_step, t.plot_available,
                   t.dodo_code, t.completed_at, t.reported, t.report_reason, t.report_by,
                   t.created_at, t.updated_at
            FROM trade_requests t
            WHERE t.status = 'completed'
              AND (t.requester_id = $1 OR t.acceptor_id = $1)
              AND t.completed_at >= NOW() - `+historyInterval+`
            ORDER BY t.completed_at DESC
        `
		args = []interface{}{userUUID}
	default: // ongoing
		query = `
            SELECT t.id, t.requester_id, t.acceptor_id, t.villager_name, t.offer_text,
                   t.offer_amount, t.offer_kind, t.status, t.trade_step, t.plot_available,
                   t.dodo_code, t.completed_at, t.reported, t.report_reason, t.report_by,
                   t.created_at, t.updated_at
            FROM trade_requests t
            WHERE t.status = 'ongoing'
              AND (t.requester_id = $1 OR t.acceptor_id = $1)
            ORDER BY t.created_at DESC
        `
		args = []interface{}{userUUID}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса заявок на обмен: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}
	defer rows.Close()

	// Список жителей зрителя нужен для восстановления роли
	// в старых строках без acceptor_id
	var owned []string
	if viewer, err := db.GetUserByID(ctx, userUUID); err == nil {
		owned = viewer.Owned
	}
	now := time.Now()

	var trades []models.TradeRequest
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		// Загружаем информацию об участниках
		trade.Requester = db.GetUserInfo(ctx, trade.RequesterID)
		if trade.AcceptorID != nil {
			trade.Acceptor = db.GetUserInfo(ctx, *trade.AcceptorID)
		}

		annotateForViewer(trade, userUUID, owned, now)

		trades = append(trades, *trade)
	}

	return c.JSON(fiber.Map{
		"trades": trades,
		"count":  len(trades),
	})
}

// AcceptTrade принимает открытую заявку на обмен.
// Условие status='open' проверяется атомарно с записью: из двух
// одновременных принятий пройдёт ровно одно, второе получит конфликт.
func (s *TradeService) AcceptTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.checkNotRestricted(ctx, actorID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	tag, err := db.Pool.Exec(ctx, `
        UPDATE trade_requests
        SET status = 'ongoing', acceptor_id = $2, trade_step = 1, updated_at = NOW()
        WHERE id = $1 AND status = 'open' AND requester_id <> $2
    `, tradeID, actorID)
	if err != nil {
		log.Printf("Ошибка принятия заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		// Отличаем попытку принять собственную заявку от проигрыша гонки
		var requesterID uuid.UUID
		var status string
		lookupErr := db.Pool.QueryRow(ctx, `
            SELECT requester_id, status FROM trade_requests WHERE id = $1
        `, tradeID).Scan(&requesterID, &status)
		if lookupErr == nil && requesterID == actorID && status == models.TradeStatusOpen {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нельзя принять собственную заявку"})
		}
		return s.conflictResponse(c, ctx, tradeID)
	}

	s.notifyParties(ctx, tradeID)

	return c.JSON(fiber.Map{"success": true, "trade_id": tradeID, "status": models.TradeStatusOngoing})
}

// BoxVillager переводит обмен с шага 1 на шаг 2 (житель упакован).
// Доступно только трейдеру.
func (s *TradeService) BoxVillager(c fiber.Ctx) error {
	return s.conditionalStep(c, `
        UPDATE trade_requests
        SET trade_step = 2, updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing' AND trade_step = 1
          AND `+traderGuard+`
    `)
}

// ConfirmPlot подтверждает наличие свободного участка у традди на шаге 2
func (s *TradeService) ConfirmPlot(c fiber.Ctx) error {
	return s.conditionalStep(c, `
        UPDATE trade_requests
        SET plot_available = true, updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing' AND trade_step = 2
          AND requester_id = $2
    `)
}

// OpenGates переводит обмен на шаг 3: трейдер сохраняет Dodo-код
// и открывает ворота. Требует подтверждённого участка.
func (s *TradeService) OpenGates(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	var requestData struct {
		DodoCode string `json:"dodo_code"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	code := NormalizeDodoCode(requestData.DodoCode)
	if !ValidDodoCode(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Dodo-код должен состоять из 5 символов A-Z/0-9"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE trade_requests
        SET dodo_code = $3, trade_step = 3, updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing' AND trade_step = 2 AND plot_available = true
          AND `+traderGuard+`
    `, tradeID, actorID, code)
	if err != nil {
		log.Printf("Ошибка сохранения Dodo-кода: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		return s.conflictResponse(c, ctx, tradeID)
	}

	s.notifyParties(ctx, tradeID)

	return c.JSON(fiber.Map{"success": true, "trade_id": tradeID, "trade_step": 3})
}

// CompleteTrade завершает обмен на шаге 3.
// Трейдер может завершить сразу; традди - только после 24 часов
// без активности, если трейдер пропал. Перевод жителя между профилями
// и завершение заявки выполняются одной транзакцией: либо применяются
// все три изменения, либо ни одно.
func (s *TradeService) CompleteTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var requesterID uuid.UUID
	var acceptorID *uuid.UUID
	var villagerName string

	err = tx.QueryRow(ctx, `
        UPDATE trade_requests
        SET status = 'completed', trade_step = 4, completed_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing' AND trade_step = 3
          AND (
              `+traderGuard+`
              OR (requester_id = $2 AND updated_at <= NOW() - `+tradeeCompleteInterval+`)
          )
        RETURNING requester_id, acceptor_id, villager_name
    `, tradeID, actorID).Scan(&requesterID, &acceptorID, &villagerName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return s.conflictResponse(c, ctx, tradeID)
		}
		log.Printf("Ошибка завершения обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	// Житель уходит из списка трейдера
	if acceptorID != nil {
		_, err = tx.Exec(ctx, `
            UPDATE ac_users
            SET owned = array_remove(owned, $2), updated_at = NOW()
            WHERE id = $1
        `, *acceptorID, villagerName)
		if err != nil {
			log.Printf("Ошибка обновления профиля трейдера: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка переноса жителя"})
		}
	}

	// И появляется в списке традди
	_, err = tx.Exec(ctx, `
        UPDATE ac_users
        SET owned = array_append(array_remove(owned, $2), $2), updated_at = NOW()
        WHERE id = $1
    `, requesterID, villagerName)
	if err != nil {
		log.Printf("Ошибка обновления профиля традди: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка переноса жителя"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	s.notifyParties(ctx, tradeID)

	return c.JSON(fiber.Map{
		"success":  true,
		"trade_id": tradeID,
		"status":   models.TradeStatusCompleted,
	})
}

// CancelTrade отменяет текущий обмен и возвращает заявку в open.
// До шага 2 отмена доступна обеим сторонам в любой момент;
// после - только по достижении порога неактивности (48 часов).
func (s *TradeService) CancelTrade(c fiber.Ctx) error {
	return s.resetTrade(c, `
        UPDATE trade_requests
        SET status = 'open', acceptor_id = NULL, trade_step = 1,
            plot_available = false, dodo_code = '', updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing'
          AND (requester_id = $2 OR `+traderGuard+`)
          AND (trade_step < 2 OR updated_at <= NOW() - `+expiryInterval+`)
    `)
}

// ExpireTrade сбрасывает обмен, неактивный 48 часов и дольше.
// Порог вычисляется лениво по updated_at, фоновый процесс не нужен.
func (s *TradeService) ExpireTrade(c fiber.Ctx) error {
	return s.resetTrade(c, `
        UPDATE trade_requests
        SET status = 'open', acceptor_id = NULL, trade_step = 1,
            plot_available = false, dodo_code = '', updated_at = NOW()
        WHERE id = $1 AND status = 'ongoing'
          AND (requester_id = $2 OR `+traderGuard+`)
          AND updated_at <= NOW() - `+expiryInterval+`
    `)
}

// DeleteTradeRequest удаляет открытую заявку. Доступно только автору.
func (s *TradeService) DeleteTradeRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM trade_requests
        WHERE id = $1 AND requester_id = $2 AND status = 'open'
    `, tradeID, actorID)
	if err != nil {
		log.Printf("Ошибка удаления заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления заявки"})
	}

	if tag.RowsAffected() == 0 {
		return s.conflictResponse(c, ctx, tradeID)
	}

	return c.JSON(fiber.Map{"success": true})
}

// ReportTrade подаёт жалобу на завершённый обмен.
// Статус и шаг заявки при этом не меняются.
func (s *TradeService) ReportTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Причина жалобы не может быть пустой"})
	}
	if len(requestData.Reason) > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Причина жалобы слишком длинная"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        UPDATE trade_requests
        SET reported = true, report_reason = $3, report_by = $2
        WHERE id = $1 AND status = 'completed' AND reported = false
          AND (requester_id = $2 OR acceptor_id = $2)
    `, tradeID, actorID, requestData.Reason)
	if err != nil {
		log.Printf("Ошибка подачи жалобы: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения жалобы"})
	}

	if tag.RowsAffected() == 0 {
		return s.conflictResponse(c, ctx, tradeID)
	}

	return c.JSON(fiber.Map{"success": true})
}

// traderGuard - SQL-условие "действующий пользователь является трейдером".
// Для старых строк без acceptor_id роль восстанавливается по владению
// жителем; после бэкфилла acceptor_id вторая ветка подлежит удалению.
const traderGuard = `(
    acceptor_id = $2
    OR (acceptor_id IS NULL AND EXISTS (
        SELECT 1 FROM ac_users u
        WHERE u.id = $2 AND u.owned @> ARRAY[trade_requests.villager_name]
    ))
)`

// conditionalStep выполняет условный переход шага без тела запроса
func (s *TradeService) conditionalStep(c fiber.Ctx, query string) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, query, tradeID, actorID)
	if err != nil {
		log.Printf("Ошибка перехода шага обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		return s.conflictResponse(c, ctx, tradeID)
	}

	s.notifyParties(ctx, tradeID)

	return c.JSON(fiber.Map{"success": true, "trade_id": tradeID})
}

// resetTrade выполняет сброс обмена в open (отмена или истечение)
func (s *TradeService) resetTrade(c fiber.Ctx, query string) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Участников нужно знать до сброса: после него acceptor_id обнулится
	parties := s.tradeParties(ctx, tradeID)

	tag, err := db.Pool.Exec(ctx, query, tradeID, actorID)
	if err != nil {
		log.Printf("Ошибка сброса обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	if tag.RowsAffected() == 0 {
		return s.conflictResponse(c, ctx, tradeID)
	}

	for _, p := range parties {
		s.hub.SendToUser(p.String(), websocket.Event{
			Type:    websocket.EventTradeUpdated,
			TradeID: tradeID.String(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "trade_id": tradeID, "status": models.TradeStatusOpen})
}

// checkNotRestricted запрещает действия ограниченным и заблокированным пользователям
func (s *TradeService) checkNotRestricted(ctx context.Context, userID uuid.UUID) error {
	var restricted, banned bool
	err := db.Pool.QueryRow(ctx, `
        SELECT trade_restricted, banned FROM ac_users WHERE id = $1
    `, userID).Scan(&restricted, &banned)
	if err != nil {
		log.Printf("Ошибка проверки статуса пользователя: %v", err)
		return errUserUnavailable
	}
	if banned {
		return errUserBanned
	}
	if restricted {
		return errUserRestricted
	}
	return nil
}

var (
	errUserUnavailable = errors.New("Не удалось проверить статус пользователя")
	errUserBanned      = errors.New("Аккаунт заблокирован")
	errUserRestricted  = errors.New("Обмены для этого аккаунта ограничены")
)

// conflictResponse формирует ответ при несработавшем условном обновлении.
// Перечитываем текущее состояние, чтобы отличить отсутствие заявки
// от обычного проигрыша гонки.
func (s *TradeService) conflictResponse(c fiber.Ctx, ctx context.Context, tradeID uuid.UUID) error {
	var trade models.TradeRequest
	err := db.Pool.QueryRow(ctx, `
        SELECT id, requester_id, acceptor_id, status, trade_step
        FROM trade_requests
        WHERE id = $1
    `, tradeID).Scan(&trade.ID, &trade.RequesterID, &trade.AcceptorID, &trade.Status, &trade.TradeStep)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error":      "Заявка уже в другом состоянии, обновите список",
		"status":     trade.Status,
		"trade_step": trade.TradeStep,
	})
}

// tradeParties возвращает участников обмена для рассылки событий
func (s *TradeService) tradeParties(ctx context.Context, tradeID uuid.UUID) []uuid.UUID {
	var requesterID uuid.UUID
	var acceptorID *uuid.UUID
	err := db.Pool.QueryRow(ctx, `
        SELECT requester_id, acceptor_id FROM trade_requests WHERE id = $1
    `, tradeID).Scan(&requesterID, &acceptorID)
	if err != nil {
		return nil
	}

	parties := []uuid.UUID{requesterID}
	if acceptorID != nil {
		parties = append(parties, *acceptorID)
	}
	return parties
}

// notifyParties публикует событие обновления обмена обеим сторонам.
// Событие - только сигнал перечитать состояние, данных оно не несёт.
func (s *TradeService) notifyParties(ctx context.Context, tradeID uuid.UUID) {
	for _, p := range s.tradeParties(ctx, tradeID) {
		s.hub.SendToUser(p.String(), websocket.Event{
			Type:      websocket.EventTradeUpdated,
			TradeID:   tradeID.String(),
			Timestamp: time.Now(),
		})
	}
}

// scanTrade читает строку trade_requests в модель
func scanTrade(rows pgx.Rows) (*models.TradeRequest, error) {
	var t models.TradeRequest
	var offerKind string
	err := rows.Scan(
		&t.ID, &t.RequesterID, &t.AcceptorID, &t.VillagerName, &t.OfferText,
		&t.OfferAmount, &offerKind, &t.Status, &t.TradeStep, &t.PlotAvailable,
		&t.DodoCode, &t.CompletedAt, &t.Reported, &t.ReportReason, &t.ReportBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.OfferKind = models.OfferKind(offerKind)
	return &t, nil
}
