package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTicketCategory(t *testing.T) {
	assert.True(t, ValidTicketCategory(TicketCategoryHelp))
	assert.True(t, ValidTicketCategory(TicketCategoryFeedback))
	assert.False(t, ValidTicketCategory("support"))
	assert.False(t, ValidTicketCategory(""))
}

func TestTicketStatusAllowedHelp(t *testing.T) {
	assert.True(t, TicketStatusAllowed(TicketCategoryHelp, TicketStatusOpen))
	assert.True(t, TicketStatusAllowed(TicketCategoryHelp, TicketStatusResolved))

	// Статусы предложений для вопросов в поддержку недоступны
	assert.False(t, TicketStatusAllowed(TicketCategoryHelp, TicketStatusImplementing))
	assert.False(t, TicketStatusAllowed(TicketCategoryHelp, TicketStatusImplemented))
	assert.False(t, TicketStatusAllowed(TicketCategoryHelp, TicketStatusRejected))
}

func TestTicketStatusAllowedFeedback(t *testing.T) {
	assert.True(t, TicketStatusAllowed(TicketCategoryFeedback, TicketStatusOpen))
	assert.True(t, TicketStatusAllowed(TicketCategoryFeedback, TicketStatusImplementing))
	assert.True(t, TicketStatusAllowed(TicketCategoryFeedback, TicketStatusImplemented))
	assert.True(t, TicketStatusAllowed(TicketCategoryFeedback, TicketStatusRejected))

	assert.False(t, TicketStatusAllowed(TicketCategoryFeedback, TicketStatusResolved))
}

func TestTicketStatusAllowedUnknown(t *testing.T) {
	assert.False(t, TicketStatusAllowed("support", TicketStatusOpen))
	assert.False(t, TicketStatusAllowed(TicketCategoryHelp, "done"))
}

func TestTicketConversationID(t *testing.T) {
	ticket := Ticket{}
	ticket.ID = mustUUID(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "admin_6ba7b810-9dad-11d1-80b4-00c04fd430c8", ticket.ConversationID())
}

func TestUserReportTransitions(t *testing.T) {
	assert.True(t, UserReportTransitionAllowed(UserReportOpen, UserReportDismissed))
	assert.True(t, UserReportTransitionAllowed(UserReportOpen, UserReportClosed))

	// Обработанные жалобы не переоткрываются
	assert.False(t, UserReportTransitionAllowed(UserReportDismissed, UserReportOpen))
	assert.False(t, UserReportTransitionAllowed(UserReportClosed, UserReportOpen))
	assert.False(t, UserReportTransitionAllowed(UserReportDismissed, UserReportClosed))
	assert.False(t, UserReportTransitionAllowed(UserReportOpen, UserReportOpen))
}
