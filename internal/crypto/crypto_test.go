package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "3d7e9f1a-0b2c-4d5e-8f90-123456789abc"
	idB = "a1b2c3d4-e5f6-4a5b-9c8d-fedcba987654"
)

func TestDeriveKeyOrderIndependent(t *testing.T) {
	k1 := DeriveKey(idA, idB)
	k2 := DeriveKey(idB, idA)
	require.Equal(t, k1, k2)
	require.Len(t, k1, 32)
}

func TestDeriveKeyDistinctPairs(t *testing.T) {
	k1 := DeriveKey(idA, idB)
	k2 := DeriveKey(idA, "00000000-0000-0000-0000-000000000000")
	assert.NotEqual(t, k1, k2)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintexts := []string{
		"Hi! Is Raymond still available?",
		"",
		"многострочный\nтекст с юникодом 🏝️",
	}

	for _, pt := range plaintexts {
		enc, iv, err := Encrypt(pt, idA, idB)
		require.NoError(t, err)

		// Расшифровка должна работать при любом порядке ID
		assert.Equal(t, pt, Decrypt(enc, iv, idA, idB))
		assert.Equal(t, pt, Decrypt(enc, iv, idB, idA))
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	_, iv1, err := Encrypt("same text", idA, idB)
	require.NoError(t, err)
	_, iv2, err := Encrypt("same text", idA, idB)
	require.NoError(t, err)
	assert.NotEqual(t, iv1, iv2)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	enc, iv, err := Encrypt("secret plan", idA, idB)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[0] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	assert.Equal(t, Sentinel, Decrypt(tampered, iv, idA, idB))
}

func TestDecryptTamperedNonce(t *testing.T) {
	enc, iv, err := Encrypt("secret plan", idA, idB)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(iv)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x80
	tampered := base64.StdEncoding.EncodeToString(raw)

	assert.Equal(t, Sentinel, Decrypt(enc, tampered, idA, idB))
}

func TestDecryptWrongPair(t *testing.T) {
	enc, iv, err := Encrypt("secret plan", idA, idB)
	require.NoError(t, err)
	// Модератор с неверной парой ID получает заглушку, а не ошибку
	assert.Equal(t, Sentinel, Decrypt(enc, iv, idA, "ffffffff-0000-0000-0000-000000000000"))
}

func TestDecryptGarbageInput(t *testing.T) {
	assert.Equal(t, Sentinel, Decrypt("not base64 at all!!!", "???", idA, idB))
	assert.Equal(t, Sentinel, Decrypt("", "", idA, idB))
}
