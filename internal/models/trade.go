package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы заявки на обмен
const (
	TradeStatusOpen      = "open"
	TradeStatusOngoing   = "ongoing"
	TradeStatusCompleted = "completed"
	TradeStatusCancelled = "cancelled"
)

// OfferKind определяет валюту предложения
type OfferKind string

const (
	OfferKindNone  OfferKind = ""
	OfferKindBells OfferKind = "bells"
	OfferKindNMT   OfferKind = "nmt"
)

// ValidOfferKind проверяет допустимость валюты предложения
func ValidOfferKind(k OfferKind) bool {
	switch k {
	case OfferKindNone, OfferKindBells, OfferKindNMT:
		return true
	}
	return false
}

// TradeRequest представляет заявку на обмен жителем
type TradeRequest struct {
	ID            uuid.UUID  `json:"id"`
	RequesterID   uuid.UUID  `json:"requester_id"`
	AcceptorID    *uuid.UUID `json:"acceptor_id,omitempty"`
	VillagerName  string     `json:"villager_name"`
	OfferText     string     `json:"offer_text"`
	OfferAmount   *int64     `json:"offer_amount,omitempty"`
	OfferKind     OfferKind  `json:"offer_kind,omitempty"`
	Status        string     `json:"status"`
	TradeStep     int        `json:"trade_step"`
	PlotAvailable bool       `json:"plot_available"`
	DodoCode      string     `json:"dodo_code,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Reported      bool       `json:"reported"`
	ReportReason  string     `json:"report_reason,omitempty"`
	ReportBy      *uuid.UUID `json:"report_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	Requester *UserInfo `json:"requester,omitempty"`
	Acceptor  *UserInfo `json:"acceptor,omitempty"`

	// Поля, вычисляемые относительно запрашивающего пользователя
	ViewerRole  string `json:"viewer_role,omitempty"`
	CanExpire   bool   `json:"can_expire,omitempty"`
	CanComplete bool   `json:"can_complete,omitempty"`
}
