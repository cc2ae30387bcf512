package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrKeyCleared возвращается при попытке использовать очищенный ключ
var ErrKeyCleared = errors.New("encryption key has been cleared")

// EncryptionKey - симметричный ключ, живущий только в памяти.
// Держатель ключа обязан вызвать Clear когда ключ больше не нужен;
// незачищенный ключ - это утечка ресурса, а не падение.
type EncryptionKey struct {
	bytes   []byte
	cleared bool
}

// GenerateKey генерирует криптографически случайный 32-байтный ключ
func GenerateKey() (*EncryptionKey, error) {
	b := make([]byte, KeySize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &EncryptionKey{bytes: b}, nil
}

// NewEncryptionKey оборачивает сырые байты ключа.
// Владение байтами переходит к ключу: Clear зачистит их.
func NewEncryptionKey(b []byte) *EncryptionKey {
	return &EncryptionKey{bytes: b}
}

// Bytes возвращает материал ключа.
// Возвращает nil если ключ очищен.
func (k *EncryptionKey) Bytes() []byte {
	if k.cleared {
		return nil
	}
	return k.bytes
}

// Clone возвращает независимую копию ключа.
// Копия зачищается отдельно от оригинала.
func (k *EncryptionKey) Clone() *EncryptionKey {
	if k.cleared {
		return &EncryptionKey{cleared: true}
	}
	b := make([]byte, len(k.bytes))
	copy(b, k.bytes)
	return &EncryptionKey{bytes: b}
}

// Clear зачищает материал ключа в памяти.
// Повторный вызов безопасен.
func (k *EncryptionKey) Clear() {
	for i := range k.bytes {
		k.bytes[i] = 0
	}
	k.bytes = nil
	k.cleared = true
}

// IsCleared сообщает, был ли ключ зачищен
func (k *EncryptionKey) IsCleared() bool {
	return k.cleared
}

// Keys содержит производные ключи для аутентификации и шифрования
type Keys struct {
	AuthKey []byte         // ключ для аутентификации на сервере (32 bytes)
	UserKey *EncryptionKey // user-ключ устройства для шифрования кэша
}

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// Argon2KeyLen - длина выходного ключа в байтах
	Argon2KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// GenerateSalt генерирует криптографически случайную соль указанного размера
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 генерирует криптографически случайную соль и возвращает ее в Base64
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKeys генерирует два независимых ключа из master password:
// - AuthKey для аутентификации на сервере
// - UserKey для шифрования локального кэша
// Использует Argon2id с разными context strings для независимости ключей
func DeriveKeys(masterPassword, username string, salt []byte) (*Keys, error) {
	if masterPassword == "" {
		return nil, fmt.Errorf("master password cannot be empty")
	}
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	baseInput := []byte(masterPassword + username)

	// AuthKey с context "auth"
	authContext := append([]byte{}, baseInput...)
	authContext = append(authContext, []byte("auth")...)
	authKey := argon2.IDKey(authContext, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	// UserKey с context "encrypt"
	encryptContext := append([]byte{}, baseInput...)
	encryptContext = append(encryptContext, []byte("encrypt")...)
	userKey := argon2.IDKey(encryptContext, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	return &Keys{
		AuthKey: authKey,
		UserKey: NewEncryptionKey(userKey),
	}, nil
}

// DeriveKeysFromBase64Salt генерирует ключи из Base64-кодированной соли
func DeriveKeysFromBase64Salt(masterPassword, username, saltBase64 string) (*Keys, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	return DeriveKeys(masterPassword, username, salt)
}
