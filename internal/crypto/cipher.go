package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
	// KeySize - размер симметричного ключа AES-256
	KeySize = 32
)

// Tag - метка domain separation для шифруемых данных.
// Передаётся в AES-GCM как additional authenticated data: расшифровка
// с другой меткой невозможна, операция завершается ErrTagMismatch.
type Tag string

const (
	// TagNone - без метки (контент общего назначения)
	TagNone Tag = ""
	// TagItemKey - item-ключ, зашифрованный link-ключом
	TagItemKey Tag = "itemkey"
	// TagLinkKey - link-ключ, зашифрованный share-ключом
	TagLinkKey Tag = "linkkey"
	// TagVaultContent - контент vault (имя/описание)
	TagVaultContent Tag = "vaultcontent"
	// TagItemContent - сериализованный payload item
	TagItemContent Tag = "itemcontent"
)

// ErrTagMismatch возвращается когда метка при расшифровке не совпадает
// с меткой, использованной при шифровании
var ErrTagMismatch = errors.New("encryption tag mismatch")

// Encrypt шифрует данные с использованием AES-256-GCM.
// Формат результата: nonce (12 bytes) + ciphertext + auth_tag (16 bytes).
// Метка tag участвует в аутентификации: Decrypt с другой меткой провалится.
func Encrypt(plaintext, key []byte, tag Tag) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Генерируем случайный nonce
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM автоматически добавляет authentication tag в конец
	ciphertext := aesGCM.Seal(nil, nonce, plaintext, []byte(tag))

	result := make([]byte, 0, len(nonce)+len(ciphertext))
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// Decrypt дешифрует данные, зашифрованные с помощью Encrypt.
// Ожидает формат: nonce (12 bytes) + ciphertext + auth_tag (16 bytes).
// Метка должна совпадать с переданной в Encrypt.
func Decrypt(encrypted, key []byte, tag Tag) ([]byte, error) {
	if len(encrypted) < NonceSize {
		return nil, fmt.Errorf("encrypted data too short")
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := encrypted[:NonceSize]
	ciphertext := encrypted[NonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, []byte(tag))
	if err != nil {
		// При правильном ключе провал аутентификации означает несовпадение метки
		if tag != TagNone {
			return nil, fmt.Errorf("failed to decrypt with tag %q: %w", tag, ErrTagMismatch)
		}
		return nil, fmt.Errorf("failed to decrypt: authentication failed or corrupted data: %w", err)
	}

	return plaintext, nil
}

// EncryptToBase64 шифрует данные и возвращает результат в Base64
func EncryptToBase64(plaintext, key []byte, tag Tag) (string, error) {
	encrypted, err := Encrypt(plaintext, key, tag)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// DecryptFromBase64 дешифрует данные из Base64
func DecryptFromBase64(encryptedBase64 string, key []byte, tag Tag) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encryptedBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return Decrypt(encrypted, key, tag)
}
