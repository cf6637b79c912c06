package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestIsModerator(t *testing.T) {
	assert.True(t, (&User{UserNumber: 0}).IsModerator())
	assert.True(t, (&User{UserNumber: 2}).IsModerator())

	assert.False(t, (&User{UserNumber: 1}).IsModerator())
	assert.False(t, (&User{UserNumber: 3}).IsModerator())
	assert.False(t, (&User{UserNumber: 42}).IsModerator())
}

func TestValidOfferKind(t *testing.T) {
	assert.True(t, ValidOfferKind(OfferKindNone))
	assert.True(t, ValidOfferKind(OfferKindBells))
	assert.True(t, ValidOfferKind(OfferKindNMT))

	assert.False(t, ValidOfferKind("gold"))
	assert.False(t, ValidOfferKind("Bells"))
}
