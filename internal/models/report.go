package models

import (
	"time"

	"github.com/google/uuid"
)

// UserReportStatus определяет статус жалобы на пользователя
type UserReportStatus string

const (
	UserReportOpen      UserReportStatus = "open"
	UserReportDismissed UserReportStatus = "dismissed"
	UserReportClosed    UserReportStatus = "closed"
)

// userReportTransitions перечисляет допустимые целевые статусы жалобы
var userReportTransitions = map[UserReportStatus][]UserReportStatus{
	UserReportOpen: {UserReportDismissed, UserReportClosed},
}

// UserReportTransitionAllowed проверяет допустимость перехода статуса жалобы
func UserReportTransitionAllowed(from, to UserReportStatus) bool {
	for _, s := range userReportTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UserReport представляет жалобу на пользователя, созданную из переписки
type UserReport struct {
	ID             uuid.UUID        `json:"id"`
	ReporterID     uuid.UUID        `json:"reporter_id"`
	ReportedID     uuid.UUID        `json:"reported_id"`
	ConversationID string           `json:"conversation_id"`
	Reason         string           `json:"reason"`
	Status         UserReportStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ModerationAction определяет тип действия модератора
type ModerationAction string

const (
	ActionRestrict      ModerationAction = "restrict"
	ActionUnrestrict    ModerationAction = "unrestrict"
	ActionDismissReport ModerationAction = "dismiss_report"
	ActionBan           ModerationAction = "ban"
	ActionUnban         ModerationAction = "unban"
	ActionWarn          ModerationAction = "warn"
)

// actionTitles - заголовки записей журнала для панели модератора
var actionTitles = map[ModerationAction]string{
	ActionRestrict:      "Ограничение обменов",
	ActionUnrestrict:    "Снятие ограничения обменов",
	ActionDismissReport: "Жалоба отклонена",
	ActionBan:           "Блокировка аккаунта",
	ActionUnban:         "Разблокировка аккаунта",
	ActionWarn:          "Предупреждение",
}

// Title возвращает заголовок записи журнала для действия
func (a ModerationAction) Title() string {
	if title, ok := actionTitles[a]; ok {
		return title
	}
	return string(a)
}

// ModerationLogEntry представляет запись в журнале модерации.
// Журнал только дополняется: записи не изменяются и не удаляются.
// В meta лежит свободный контекст действия, например id обмена,
// с которого снята жалоба.
type ModerationLogEntry struct {
	ID          uuid.UUID        `json:"id"`
	ModeratorID uuid.UUID        `json:"moderator_id"`
	TargetID    uuid.UUID        `json:"target_id"`
	Action      ModerationAction `json:"action"`
	Title       string           `json:"title"`
	Reason      string           `json:"reason,omitempty"`
	Meta        string           `json:"meta,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
