package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
)

// mockSessionStorage implements storage.SessionStorage for testing
type mockSessionStorage struct {
	data      *storage.SessionData
	saveErr   error
	getErr    error
	deleteErr error
}

func (m *mockSessionStorage) SaveSession(ctx context.Context, session *storage.SessionData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := *session
	m.data = &stored
	return nil
}

func (m *mockSessionStorage) GetSession(ctx context.Context) (*storage.SessionData, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.data == nil {
		return nil, storage.ErrSessionNotFound
	}
	stored := *m.data
	return &stored, nil
}

func (m *mockSessionStorage) DeleteSession(ctx context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.data = nil
	return nil
}

func mustSalt(t *testing.T) string {
	t.Helper()
	salt, err := crypto.GenerateSaltBase64()
	require.NoError(t, err)
	return salt
}

func newSessionStore(t *testing.T) (*SessionStore, *mockSessionStorage) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(key.Clear)

	mockStorage := &mockSessionStorage{}
	return NewSessionStore(mockStorage, crypto.NewProvider(key)), mockStorage
}

func testSession() *storage.SessionData {
	return &storage.SessionData{
		Username:     "alice",
		UserID:       "user-123",
		AccessToken:  "plaintext-access-token",
		RefreshToken: "plaintext-refresh-token",
		PublicSalt:   "salt123",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, mockStorage := newSessionStore(t)
	ctx := context.Background()

	session := testSession()
	require.NoError(t, store.SaveSession(ctx, session))

	// В хранилище легли зашифрованные токены, не plaintext
	require.NotNil(t, mockStorage.data)
	assert.NotEqual(t, "plaintext-access-token", mockStorage.data.AccessToken)
	assert.NotEqual(t, "plaintext-refresh-token", mockStorage.data.RefreshToken)
	assert.Equal(t, "alice", mockStorage.data.Username)

	// Входящая структура не изменилась
	assert.Equal(t, "plaintext-access-token", session.AccessToken)

	// Чтение возвращает расшифрованные токены
	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plaintext-access-token", got.AccessToken)
	assert.Equal(t, "plaintext-refresh-token", got.RefreshToken)
	assert.Equal(t, "user-123", got.UserID)
}

func TestSessionStore_GetSessionMeta_NoDecryption(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession()))

	// Мета доступна без расшифровки: username и соль открыты
	meta, err := store.GetSessionMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", meta.Username)
	assert.Equal(t, "salt123", meta.PublicSalt)
	assert.NotEqual(t, "plaintext-access-token", meta.AccessToken)
}

func TestSessionStore_WrongKeyFailsDecryption(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(key.Clear)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(otherKey.Clear)

	mockStorage := &mockSessionStorage{}
	ctx := context.Background()

	store := NewSessionStore(mockStorage, crypto.NewProvider(key))
	require.NoError(t, store.SaveSession(ctx, testSession()))

	// Другой user-ключ (другой master password) токены не откроет
	otherStore := NewSessionStore(mockStorage, crypto.NewProvider(otherKey))
	_, err = otherStore.GetSession(ctx)
	require.Error(t, err)
}

func TestSessionStore_DeleteSession(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession()))
	require.NoError(t, store.DeleteSession(ctx))

	_, err := store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestSessionStore_SaveNil(t *testing.T) {
	store, _ := newSessionStore(t)
	require.Error(t, store.SaveSession(context.Background(), nil))
}

func TestSessionStore_IsSessionValid(t *testing.T) {
	store, mockStorage := newSessionStore(t)
	ctx := context.Background()

	session := testSession()
	require.NoError(t, store.SaveSession(ctx, session))

	valid, err := store.IsSessionValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	// Истёкшая сессия невалидна
	mockStorage.data.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	valid, err = store.IsSessionValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte("server-side-secret"))
	require.NoError(t, err)

	// Подпись не проверяется: серверного секрета у клиента нет
	got, err := TokenExpiry(signed)
	require.NoError(t, err)
	assert.Equal(t, expiry.Unix(), got.Unix())
}

func TestTokenExpiry_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "not a jwt",
			token: "garbage",
		},
		{
			name: "no expiry claim",
			token: func() string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-123"})
				signed, _ := tok.SignedString([]byte("secret"))
				return signed
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TokenExpiry(tt.token)
			require.Error(t, err)
		})
	}
}
