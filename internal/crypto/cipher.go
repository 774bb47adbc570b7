// Package crypto - симметричное аутентифицированное шифрование (AES-256-GCM) значений и файлов
// и менеджер ключа устройства.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"ReceiptKeeper/internal/errs"
)

// KeyLen - длина ключа для AES-256 (в байтах).
const KeyLen = 32

// PayloadPrefix - метка формата зашифрованного значения: "gk1:" + base64(nonce || ciphertext || tag).
const PayloadPrefix = "gk1:"

const (
	nonceLen = 12
	tagLen   = 16
	// минимальная длина base64-тела: nonce + пустой шифртекст + тег
	minBodyLen = ((nonceLen + tagLen + 2) / 3) * 4
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", errs.ErrInvalidArgument, KeyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt шифрует plain ключом key и возвращает самоописывающий payload.
// Nonce генерируется заново на каждый вызов.
func Encrypt(plain []byte, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plain, nil)
	return PayloadPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает payload, полученный от Encrypt.
// Чужой ключ, подмена данных или битый base64 дают errs.ErrIntegrity.
func Decrypt(payload string, key []byte) ([]byte, error) {
	if !IsEncryptedPayload(payload) {
		return nil, fmt.Errorf("%w: value is not an encrypted payload", errs.ErrInvalidArgument)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(payload[len(PayloadPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", errs.ErrIntegrity, err)
	}
	if len(raw) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", errs.ErrIntegrity)
	}
	nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIntegrity, err)
	}
	return plain, nil
}

// IsEncryptedPayload - дешёвая проверка формата (префикс, длина, алфавит base64) без расшифровки.
// Всё, что не проходит проверку, считается открытым текстом.
func IsEncryptedPayload(v string) bool {
	if !strings.HasPrefix(v, PayloadPrefix) {
		return false
	}
	body := v[len(PayloadPrefix):]
	if len(body) < minBodyLen || len(body)%4 != 0 {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
		case c == '=' && i >= len(body)-2:
		default:
			return false
		}
	}
	return true
}

// EncryptString шифрует строку.
func EncryptString(s string, key []byte) (string, error) {
	return Encrypt([]byte(s), key)
}

// DecryptString расшифровывает payload в строку.
func DecryptString(payload string, key []byte) (string, error) {
	b, err := Decrypt(payload, key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecryptOrPlain используется на путях чтения со смешанными (legacy/зашифрованными) данными:
// значение без метки возвращается как есть; при ошибке расшифровки возвращается исходное
// значение вместе с ошибкой, решение о fallback принимает вызывающий.
func DecryptOrPlain(v string, key []byte) (string, error) {
	if !IsEncryptedPayload(v) {
		return v, nil
	}
	plain, err := DecryptString(v, key)
	if err != nil {
		return v, err
	}
	return plain, nil
}
