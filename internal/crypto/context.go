package crypto

import (
	"fmt"
)

// Context - контекст симметричного шифрования, привязанный к одному ключу.
// Все пересечения границы plaintext/ciphertext проходят через него.
type Context struct {
	key *EncryptionKey
}

// Encrypt шифрует plaintext ключом контекста с меткой tag
func (c *Context) Encrypt(plaintext []byte, tag Tag) ([]byte, error) {
	if c.key.IsCleared() {
		return nil, ErrKeyCleared
	}
	return Encrypt(plaintext, c.key.Bytes(), tag)
}

// Decrypt расшифровывает ciphertext ключом контекста; метка должна
// совпадать с использованной при шифровании
func (c *Context) Decrypt(encrypted []byte, tag Tag) ([]byte, error) {
	if c.key.IsCleared() {
		return nil, ErrKeyCleared
	}
	return Decrypt(encrypted, c.key.Bytes(), tag)
}

// EncryptString шифрует строку без метки
func (c *Context) EncryptString(plaintext string) ([]byte, error) {
	return c.Encrypt([]byte(plaintext), TagNone)
}

// DecryptString расшифровывает в строку без метки
func (c *Context) DecryptString(encrypted []byte) (string, error) {
	b, err := c.Decrypt(encrypted, TagNone)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Provider выдаёт scoped encryption context.
// По умолчанию контекст параметризован process-wide user-ключом;
// WithKeyContext позволяет выполнить блок с явным ключом.
type Provider struct {
	userKey *EncryptionKey
}

// NewProvider создает provider над user-ключом устройства.
// Provider не принимает владение ключом: зачистка остаётся за вызывающим.
func NewProvider(userKey *EncryptionKey) *Provider {
	return &Provider{userKey: userKey}
}

// WithContext выполняет fn в контексте user-ключа
func (p *Provider) WithContext(fn func(*Context) error) error {
	if p.userKey == nil || p.userKey.IsCleared() {
		return fmt.Errorf("no user key available: %w", ErrKeyCleared)
	}
	return fn(&Context{key: p.userKey})
}

// WithKeyContext выполняет fn в контексте явного ключа.
// Ключ не зачищается провайдером: держатель ключа отвечает за Clear.
func (p *Provider) WithKeyContext(key *EncryptionKey, fn func(*Context) error) error {
	if key == nil || key.IsCleared() {
		return fmt.Errorf("no key available: %w", ErrKeyCleared)
	}
	return fn(&Context{key: key})
}
