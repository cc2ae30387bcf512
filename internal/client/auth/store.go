package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
)

// SessionStore - слой шифрования между бизнес-логикой и хранилищем сессии.
// Токены шифруются user-ключом перед записью и расшифровываются при чтении;
// в bbolt попадает только ciphertext.
type SessionStore struct {
	storage  storage.SessionStorage
	provider *crypto.Provider
}

// NewSessionStore создает слой шифрования над хранилищем сессии
func NewSessionStore(sessionStorage storage.SessionStorage, provider *crypto.Provider) *SessionStore {
	return &SessionStore{
		storage:  sessionStorage,
		provider: provider,
	}
}

// SaveSession шифрует токены и сохраняет сессию
func (s *SessionStore) SaveSession(ctx context.Context, session *storage.SessionData) error {
	if session == nil {
		return fmt.Errorf("session data is nil")
	}

	var encryptedAccess, encryptedRefresh []byte
	err := s.provider.WithContext(func(c *crypto.Context) error {
		var err error
		if encryptedAccess, err = c.EncryptString(session.AccessToken); err != nil {
			return fmt.Errorf("failed to encrypt access token: %w", err)
		}
		if encryptedRefresh, err = c.EncryptString(session.RefreshToken); err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Копия, чтобы не менять входящую структуру
	sessionCopy := *session
	sessionCopy.AccessToken = base64.StdEncoding.EncodeToString(encryptedAccess)
	sessionCopy.RefreshToken = base64.StdEncoding.EncodeToString(encryptedRefresh)

	return s.storage.SaveSession(ctx, &sessionCopy)
}

// GetSession загружает сессию и расшифровывает токены
func (s *SessionStore) GetSession(ctx context.Context) (*storage.SessionData, error) {
	stored, err := s.storage.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	encryptedAccess, err := base64.StdEncoding.DecodeString(stored.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	encryptedRefresh, err := base64.StdEncoding.DecodeString(stored.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode refresh token: %w", err)
	}

	session := *stored
	err = s.provider.WithContext(func(c *crypto.Context) error {
		if session.AccessToken, err = c.DecryptString(encryptedAccess); err != nil {
			return fmt.Errorf("failed to decrypt access token: %w", err)
		}
		if session.RefreshToken, err = c.DecryptString(encryptedRefresh); err != nil {
			return fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionMeta загружает сессию без расшифровки токенов
// (для чтения username/salt до деривации ключей)
func (s *SessionStore) GetSessionMeta(ctx context.Context) (*storage.SessionData, error) {
	return s.storage.GetSession(ctx)
}

// DeleteSession удаляет сохранённую сессию (logout)
func (s *SessionStore) DeleteSession(ctx context.Context) error {
	return s.storage.DeleteSession(ctx)
}

// TokenExpiry извлекает срок действия из JWT access token.
// Подпись не проверяется: клиент не знает серверного секрета, срок
// нужен только чтобы не ходить с заведомо протухшим токеном.
func TokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// IsSessionValid проверяет, что сессия существует и токен ещё не истёк
func (s *SessionStore) IsSessionValid(ctx context.Context) (bool, error) {
	stored, err := s.storage.GetSession(ctx)
	if err != nil {
		return false, err
	}
	return stored.ExpiresAt > time.Now().Unix(), nil
}
