package trade

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Обмен без активности дольше этого срока можно сбросить в open
	expiryWindow = 48 * time.Hour

	// Традди может завершить обмен сам, если трейдер молчит дольше этого срока
	tradeeCompleteDelay = 24 * time.Hour

	// Завершённые обмены видны в истории в течение этого срока
	historyRetention = 28 * 24 * time.Hour

	// Длина Dodo-кода в игре
	dodoCodeLength = 5
)

// SQL-литералы тех же сроков. WHERE-условия переходов подставляют их
// в текст запроса, чтобы сроки в SQL и в Go не могли разойтись.
var (
	expiryInterval         = pgInterval(expiryWindow)
	tradeeCompleteInterval = pgInterval(tradeeCompleteDelay)
	historyInterval        = pgInterval(historyRetention)
)

// pgInterval переводит срок в литерал интервала Postgres
func pgInterval(d time.Duration) string {
	return fmt.Sprintf("INTERVAL '%d hours'", int(d/time.Hour))
}

// CanExpire сообщает, достиг ли обмен порога неактивности.
// Отметкой начала отсчёта служит updated_at строки.
func CanExpire(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) >= expiryWindow
}

// TradeeCanComplete сообщает, может ли традди завершить обмен сам.
// Трейдер может завершить в любой момент на шаге 3; традди - только
// после суток ожидания, чтобы трейдера нельзя было поторопить.
func TradeeCanComplete(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) >= tradeeCompleteDelay
}

// NormalizeDodoCode приводит код к виду, в котором он хранится
func NormalizeDodoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidDodoCode проверяет код рандеву: ровно 5 символов A-Z/0-9.
// Само значение системе безразлично - код передаётся сторонам как есть.
func ValidDodoCode(code string) bool {
	if len(code) != dodoCodeLength {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
