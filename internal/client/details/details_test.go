package details

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
)

// mockDecrypter implements contentDecrypter for testing
type mockDecrypter struct {
	contents *models.ItemContents
	err      error
}

func (m *mockDecrypter) DecryptContents(ctx context.Context, item *models.Item) (*models.ItemContents, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.contents, nil
}

func newTestProvider(t *testing.T) *crypto.Provider {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(key.Clear)
	return crypto.NewProvider(key)
}

func toggleInContext(t *testing.T, provider *crypto.Provider, state models.HiddenState) models.HiddenState {
	t.Helper()
	var next models.HiddenState
	err := provider.WithContext(func(c *crypto.Context) error {
		var err error
		next, err = ToggleHiddenState(c, state)
		return err
	})
	require.NoError(t, err)
	return next
}

func TestToggleHiddenState_RoundTrip(t *testing.T) {
	provider := newTestProvider(t)

	var initial models.HiddenState
	err := provider.WithContext(func(c *crypto.Context) error {
		var err error
		initial, err = ConcealString(c, "secret-password")
		return err
	})
	require.NoError(t, err)
	require.IsType(t, models.HiddenConcealed{}, initial)

	// Concealed -> Revealed: расшифрованный текст совпадает с исходным
	revealed := toggleInContext(t, provider, initial)
	r, ok := revealed.(models.HiddenRevealed)
	require.True(t, ok)
	assert.Equal(t, "secret-password", r.ClearText)
	assert.Equal(t, initial.EncryptedBytes(), r.Encrypted)

	// Revealed -> Concealed: ciphertext сохраняется
	concealed := toggleInContext(t, provider, revealed)
	c, ok := concealed.(models.HiddenConcealed)
	require.True(t, ok)
	assert.Equal(t, initial.EncryptedBytes(), c.Encrypted)
}

func TestToggleHiddenState_EmptyFixedPoint(t *testing.T) {
	provider := newTestProvider(t)

	var initial models.HiddenState
	err := provider.WithContext(func(c *crypto.Context) error {
		var err error
		initial, err = ConcealString(c, "")
		return err
	})
	require.NoError(t, err)

	// Пустое значение сразу даёт Empty
	require.IsType(t, models.HiddenEmpty{}, initial)

	// Empty неподвижная точка: toggle её не меняет
	state := initial
	for i := 0; i < 3; i++ {
		state = toggleInContext(t, provider, state)
		assert.IsType(t, models.HiddenEmpty{}, state)
	}
}

func TestToggleHiddenState_ConcealedEmptyPlaintext(t *testing.T) {
	provider := newTestProvider(t)

	// Concealed с пустым plaintext раскрывается в Empty, не в Revealed
	var encrypted []byte
	err := provider.WithContext(func(c *crypto.Context) error {
		var err error
		encrypted, err = c.Encrypt([]byte{}, crypto.TagNone)
		return err
	})
	require.NoError(t, err)

	next := toggleInContext(t, provider, models.HiddenConcealed{Encrypted: encrypted})
	assert.IsType(t, models.HiddenEmpty{}, next)
}

func TestToggleHiddenState_WrongKey(t *testing.T) {
	provider := newTestProvider(t)
	other := newTestProvider(t)

	var state models.HiddenState
	err := provider.WithContext(func(c *crypto.Context) error {
		var err error
		state, err = ConcealString(c, "secret")
		return err
	})
	require.NoError(t, err)

	err = other.WithContext(func(c *crypto.Context) error {
		_, err := ToggleHiddenState(c, state)
		return err
	})
	require.Error(t, err)
}

func TestObserveDetails_Login(t *testing.T) {
	provider := newTestProvider(t)
	decrypter := &mockDecrypter{contents: &models.ItemContents{
		Title:    "GitHub",
		Category: models.ItemCategoryLogin,
		Login: &models.LoginContent{
			Username: "alice",
			Password: "secret-password",
			TOTPURI:  "otpauth://totp/GitHub:alice",
			URLs:     []string{"https://github.com"},
		},
	}}
	handler := NewHandler(decrypter, provider)

	details, err := handler.ObserveDetails(context.Background(), &models.Item{ID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, "GitHub", details.Title)
	require.Len(t, details.Fields, 4)

	// Чувствительные поля скрыты, обычные открыты
	assert.Equal(t, "alice", details.Fields[0].Value)
	assert.IsType(t, models.HiddenConcealed{}, details.Fields[1].Hidden)
	assert.Empty(t, details.Fields[1].Value)
	assert.IsType(t, models.HiddenConcealed{}, details.Fields[2].Hidden)
	assert.Equal(t, "https://github.com", details.Fields[3].Value)

	// Скрытый пароль раскрывается в исходное значение
	revealed := toggleInContext(t, provider, details.Fields[1].Hidden)
	r, ok := revealed.(models.HiddenRevealed)
	require.True(t, ok)
	assert.Equal(t, "secret-password", r.ClearText)
}

func TestObserveDetails_CreditCard(t *testing.T) {
	provider := newTestProvider(t)
	decrypter := &mockDecrypter{contents: &models.ItemContents{
		Title:    "Visa",
		Category: models.ItemCategoryCreditCard,
		CreditCard: &models.CreditCardContent{
			CardHolder: "ALICE SMITH",
			Number:     "4111111111111111",
			Expiry:     "12/27",
			CVV:        "123",
		},
	}}
	handler := NewHandler(decrypter, provider)

	details, err := handler.ObserveDetails(context.Background(), &models.Item{ID: "i1"})
	require.NoError(t, err)
	require.Len(t, details.Fields, 5)

	assert.Equal(t, "ALICE SMITH", details.Fields[0].Value)
	assert.IsType(t, models.HiddenConcealed{}, details.Fields[1].Hidden)
	assert.IsType(t, models.HiddenConcealed{}, details.Fields[3].Hidden)

	// Пустой PIN приходит в состоянии Empty
	assert.IsType(t, models.HiddenEmpty{}, details.Fields[4].Hidden)
}

func TestObserveDetails_AllCategoriesCovered(t *testing.T) {
	provider := newTestProvider(t)

	tests := []struct {
		name     string
		contents *models.ItemContents
	}{
		{
			name: "login",
			contents: &models.ItemContents{
				Category: models.ItemCategoryLogin,
				Login:    &models.LoginContent{Username: "alice"},
			},
		},
		{
			name: "alias",
			contents: &models.ItemContents{
				Category: models.ItemCategoryAlias,
				Alias:    &models.AliasContent{Prefix: "shopping", Suffix: "@x.dev", AliasEmail: "shopping@x.dev"},
			},
		},
		{
			name:     "note",
			contents: &models.ItemContents{Category: models.ItemCategoryNote, Note: "text"},
		},
		{
			name: "identity",
			contents: &models.ItemContents{
				Category: models.ItemCategoryIdentity,
				Identity: &models.IdentityContent{FullName: "Alice Smith"},
			},
		},
		{
			name: "credit-card",
			contents: &models.ItemContents{
				Category:   models.ItemCategoryCreditCard,
				CreditCard: &models.CreditCardContent{Number: "4111111111111111"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&mockDecrypter{contents: tt.contents}, provider)
			_, err := handler.ObserveDetails(context.Background(), &models.Item{ID: "i1"})
			require.NoError(t, err)
		})
	}
}

func TestObserveDetails_UnsupportedCategory(t *testing.T) {
	provider := newTestProvider(t)
	decrypter := &mockDecrypter{contents: &models.ItemContents{Category: "unknown"}}
	handler := NewHandler(decrypter, provider)

	_, err := handler.ObserveDetails(context.Background(), &models.Item{ID: "i1"})
	assert.ErrorIs(t, err, ErrUnsupportedCategory)
}

func TestObserveDetails_DecryptError(t *testing.T) {
	provider := newTestProvider(t)
	decrypter := &mockDecrypter{err: errors.New("corrupted content")}
	handler := NewHandler(decrypter, provider)

	_, err := handler.ObserveDetails(context.Background(), &models.Item{ID: "i1"})
	require.Error(t, err)
}
