package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOnline(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seen := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	assert.True(t, IsOnline(seen(0), now))
	assert.True(t, IsOnline(seen(time.Minute), now))
	assert.False(t, IsOnline(seen(3*time.Minute), now))
	assert.False(t, IsOnline(seen(time.Hour), now))
	assert.False(t, IsOnline(nil, now))
}

func TestIsTyping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seen := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	assert.True(t, IsTyping(seen(0), now))
	assert.True(t, IsTyping(seen(7*time.Second), now))
	assert.False(t, IsTyping(seen(8*time.Second), now))
	assert.False(t, IsTyping(seen(time.Minute), now))
	assert.False(t, IsTyping(nil, now))
}

func TestTypingImpliesOnline(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for ago := time.Duration(0); ago < 5*time.Minute; ago += time.Second {
		ts := now.Add(-ago)
		if IsTyping(&ts, now) {
			assert.True(t, IsOnline(&ts, now), "печатающий пользователь должен быть онлайн (ago=%s)", ago)
		}
	}
}
