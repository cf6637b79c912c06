package trade

import (
	"time"

	"github.com/google/uuid"

	"github.com/dreamiestore/dreamie-api/internal/models"
)

// Role определяет сторону пользователя в обмене
type Role int

const (
	RoleNone   Role = iota
	RoleTrader      // владелец жителя, принявший заявку
	RoleTradee      // автор заявки, желающий получить жителя
)

func (r Role) String() string {
	switch r {
	case RoleTrader:
		return "trader"
	case RoleTradee:
		return "tradee"
	}
	return "none"
}

// ResolveRole определяет роль пользователя в обмене.
// owned - список жителей самого пользователя: для старых записей без
// acceptor_id роль трейдера восстанавливается по владению жителем.
// TODO: убрать ветку с owned после бэкфилла acceptor_id в исторических строках.
func ResolveRole(t *models.TradeRequest, userID uuid.UUID, owned []string) Role {
	if t.AcceptorID != nil && *t.AcceptorID == userID {
		return RoleTrader
	}

	if t.RequesterID == userID {
		return RoleTradee
	}

	if t.AcceptorID == nil {
		for _, v := range owned {
			if v == t.VillagerName {
				return RoleTrader
			}
		}
	}

	return RoleNone
}

// annotateForViewer заполняет в заявке поля, зависящие от зрителя:
// его роль и доступные ему по таймерам неактивности действия.
// Карточка текущего обмена рисуется прямо по этим полям.
func annotateForViewer(t *models.TradeRequest, viewerID uuid.UUID, owned []string, now time.Time) {
	role := ResolveRole(t, viewerID, owned)
	t.ViewerRole = role.String()
	t.CanExpire = false
	t.CanComplete = false

	if t.Status != models.TradeStatusOngoing {
		return
	}

	t.CanExpire = CanExpire(t.UpdatedAt, now)
	switch role {
	case RoleTrader:
		t.CanComplete = t.TradeStep == 3
	case RoleTradee:
		t.CanComplete = t.TradeStep == 3 && TradeeCanComplete(t.UpdatedAt, now)
	}
}
