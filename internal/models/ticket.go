package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketCategory определяет категорию обращения
type TicketCategory string

const (
	TicketCategoryHelp     TicketCategory = "help"
	TicketCategoryFeedback TicketCategory = "feedback"
)

// TicketStatus определяет статус обращения
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusResolved     TicketStatus = "resolved"
	TicketStatusImplementing TicketStatus = "implementing"
	TicketStatusImplemented  TicketStatus = "implemented"
	TicketStatusRejected     TicketStatus = "rejected"
)

// ticketStatuses перечисляет допустимые статусы для каждой категории.
// Наборы закрыты: статус одной категории нельзя присвоить тикету другой.
var ticketStatuses = map[TicketCategory][]TicketStatus{
	TicketCategoryHelp:     {TicketStatusOpen, TicketStatusResolved},
	TicketCategoryFeedback: {TicketStatusOpen, TicketStatusImplementing, TicketStatusImplemented, TicketStatusRejected},
}

// ValidTicketCategory проверяет допустимость категории
func ValidTicketCategory(c TicketCategory) bool {
	_, ok := ticketStatuses[c]
	return ok
}

// TicketStatusAllowed проверяет, допустим ли статус для категории
func TicketStatusAllowed(c TicketCategory, s TicketStatus) bool {
	for _, allowed := range ticketStatuses[c] {
		if allowed == s {
			return true
		}
	}
	return false
}

// Ticket представляет обращение пользователя (помощь или предложение)
type Ticket struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Category  TicketCategory `json:"category"`
	Message   string         `json:"message"`
	Status    TicketStatus   `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ConversationID возвращает идентификатор псевдо-переписки тикета с админом
func (t *Ticket) ConversationID() string {
	return "admin_" + t.ID.String()
}
