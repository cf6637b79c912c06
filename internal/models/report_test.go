package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModerationActionTitles(t *testing.T) {
	// У каждого действия свой заголовок для панели модератора
	actions := []ModerationAction{
		ActionRestrict, ActionUnrestrict, ActionDismissReport,
		ActionBan, ActionUnban, ActionWarn,
	}

	seen := map[string]bool{}
	for _, a := range actions {
		title := a.Title()
		assert.NotEmpty(t, title)
		assert.NotEqual(t, string(a), title, "действие %s без заголовка", a)
		assert.False(t, seen[title], "заголовок %q используется дважды", title)
		seen[title] = true
	}
}

func TestModerationActionTitleUnknown(t *testing.T) {
	// Неизвестное действие показывается как есть, а не пустой строкой
	assert.Equal(t, "shadowban", ModerationAction("shadowban").Title())
}
