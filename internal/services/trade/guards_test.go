package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanExpire(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, CanExpire(now.Add(-time.Hour), now))
	assert.False(t, CanExpire(now.Add(-47*time.Hour), now))
	assert.True(t, CanExpire(now.Add(-48*time.Hour), now))
	assert.True(t, CanExpire(now.Add(-72*time.Hour), now))
}

func TestTradeeCanComplete(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, TradeeCanComplete(now, now))
	assert.False(t, TradeeCanComplete(now.Add(-23*time.Hour), now))
	assert.True(t, TradeeCanComplete(now.Add(-24*time.Hour), now))
	assert.True(t, TradeeCanComplete(now.Add(-30*time.Hour), now))
}

func TestPgInterval(t *testing.T) {
	assert.Equal(t, "INTERVAL '48 hours'", pgInterval(expiryWindow))
	assert.Equal(t, "INTERVAL '24 hours'", pgInterval(tradeeCompleteDelay))
	assert.Equal(t, "INTERVAL '672 hours'", pgInterval(historyRetention))
}

func TestNormalizeDodoCode(t *testing.T) {
	assert.Equal(t, "AB12C", NormalizeDodoCode("  ab12c "))
	assert.Equal(t, "9XYZQ", NormalizeDodoCode("9xyzq"))
	assert.Equal(t, "", NormalizeDodoCode("   "))
}

func TestValidDodoCode(t *testing.T) {
	assert.True(t, ValidDodoCode("AB12C"))
	assert.True(t, ValidDodoCode("00000"))
	assert.True(t, ValidDodoCode("ZZZZZ"))

	assert.False(t, ValidDodoCode(""))
	assert.False(t, ValidDodoCode("AB12"))
	assert.False(t, ValidDodoCode("AB12CD"))
	assert.False(t, ValidDodoCode("ab12c"))
	assert.False(t, ValidDodoCode("AB 2C"))
	assert.False(t, ValidDodoCode("AB-2C"))
}
