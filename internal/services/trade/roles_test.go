package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dreamiestore/dreamie-api/internal/models"
)

func TestResolveRoleAcceptor(t *testing.T) {
	requester := uuid.New()
	acceptor := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		AcceptorID:   &acceptor,
		VillagerName: "Raymond",
	}

	assert.Equal(t, RoleTrader, ResolveRole(trade, acceptor, nil))
	assert.Equal(t, RoleTradee, ResolveRole(trade, requester, nil))
	assert.Equal(t, RoleNone, ResolveRole(trade, uuid.New(), nil))
}

func TestResolveRoleLegacyFallback(t *testing.T) {
	// Старые строки без acceptor_id: трейдер определяется по владению жителем
	requester := uuid.New()
	owner := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		AcceptorID:   nil,
		VillagerName: "Marshal",
	}

	assert.Equal(t, RoleTrader, ResolveRole(trade, owner, []string{"Marshal", "Judy"}))
	assert.Equal(t, RoleNone, ResolveRole(trade, owner, []string{"Judy"}))
	assert.Equal(t, RoleNone, ResolveRole(trade, owner, nil))
}

func TestResolveRoleExplicitAcceptorWins(t *testing.T) {
	// Если acceptor_id заполнен, владение жителем роли не даёт
	requester := uuid.New()
	acceptor := uuid.New()
	owner := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		AcceptorID:   &acceptor,
		VillagerName: "Marshal",
	}

	assert.Equal(t, RoleNone, ResolveRole(trade, owner, []string{"Marshal"}))
}

func TestResolveRoleRequesterOwnsVillager(t *testing.T) {
	// Традди остаётся традди, даже если житель уже есть в его списке
	requester := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		AcceptorID:   nil,
		VillagerName: "Sherb",
	}

	assert.Equal(t, RoleTradee, ResolveRole(trade, requester, []string{"Sherb"}))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "trader", RoleTrader.String())
	assert.Equal(t, "tradee", RoleTradee.String())
	assert.Equal(t, "none", RoleNone.String())
}

func TestAnnotateForViewerOngoing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	requester := uuid.New()
	acceptor := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		AcceptorID:   &acceptor,
		VillagerName: "Raymond",
		Status:       models.TradeStatusOngoing,
		TradeStep:    3,
		UpdatedAt:    now.Add(-time.Hour),
	}

	// Трейдер на шаге 3 завершает сразу
	annotateForViewer(trade, acceptor, nil, now)
	assert.Equal(t, "trader", trade.ViewerRole)
	assert.True(t, trade.CanComplete)
	assert.False(t, trade.CanExpire)

	// Традди - только после суток ожидания
	annotateForViewer(trade, requester, nil, now)
	assert.Equal(t, "tradee", trade.ViewerRole)
	assert.False(t, trade.CanComplete)

	trade.UpdatedAt = now.Add(-25 * time.Hour)
	annotateForViewer(trade, requester, nil, now)
	assert.True(t, trade.CanComplete)
	assert.False(t, trade.CanExpire)

	trade.UpdatedAt = now.Add(-49 * time.Hour)
	annotateForViewer(trade, requester, nil, now)
	assert.True(t, trade.CanExpire)
}

func TestAnnotateForViewerOpen(t *testing.T) {
	// Для открытой заявки проставляется только роль
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	requester := uuid.New()

	trade := &models.TradeRequest{
		RequesterID:  requester,
		VillagerName: "Sherb",
		Status:       models.TradeStatusOpen,
		UpdatedAt:    now.Add(-72 * time.Hour),
	}

	annotateForViewer(trade, requester, nil, now)
	assert.Equal(t, "tradee", trade.ViewerRole)
	assert.False(t, trade.CanExpire)
	assert.False(t, trade.CanComplete)

	annotateForViewer(trade, uuid.New(), []string{"Sherb"}, now)
	assert.Equal(t, "trader", trade.ViewerRole)
}
