package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sort"

	"golang.org/x/crypto/pbkdf2"
)

// Ключ выводится из отсортированной пары ID участников через PBKDF2.
// "Паролем" служит конкатенация двух UUID в отсортированном порядке,
// поэтому расшифровать может любая из сторон и модератор, знающий оба ID.
const appSalt = "ac-villager-trade-v1"

const (
	kdfIterations = 100000
	keyLength     = 32 // AES-256
	nonceLength   = 12 // 96-битный nonce для GCM
)

// Sentinel возвращается вместо текста, когда расшифровка невозможна
const Sentinel = "[encrypted]"

// DeriveKey выводит симметричный ключ пары из двух ID участников.
// Порядок аргументов не важен: ID сортируются перед склейкой.
func DeriveKey(userAID, userBID string) []byte {
	ids := []string{userAID, userBID}
	sort.Strings(ids)
	return pbkdf2.Key([]byte(ids[0]+ids[1]), []byte(appSalt), kdfIterations, keyLength, sha256.New)
}

// Encrypt шифрует текст сообщения ключом пары участников.
// Для каждого вызова генерируется новый случайный nonce.
// Возвращает шифртекст и nonce в base64.
func Encrypt(plaintext, userAID, userBID string) (contentEnc, iv string, err error) {
	key := DeriveKey(userAID, userBID)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", fmt.Errorf("ошибка инициализации шифра: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("ошибка инициализации GCM: %w", err)
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt расшифровывает сообщение ключом пары участников.
// При любой ошибке (повреждённые данные, чужой ключ, неверный nonce)
// возвращается Sentinel, а не ошибка: сбой расшифровки одного сообщения
// не должен прерывать отображение остальной переписки.
func Decrypt(contentEnc, iv, userAID, userBID string) string {
	ciphertext, err := base64.StdEncoding.DecodeString(contentEnc)
	if err != nil {
		return Sentinel
	}

	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil || len(nonce) != nonceLength {
		return Sentinel
	}

	key := DeriveKey(userAID, userBID)

	block, err := aes.NewCipher(key)
	if err != nil {
		return Sentinel
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Sentinel
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Sentinel
	}

	return string(plaintext)
}
