package securelinks

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/passvault/internal/client/addresses"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/pkg/api"
)

// mockLinkAPI implements remoteAPI for testing
type mockLinkAPI struct {
	createResp  *api.CreateSecureLinkResponse
	createErr   error
	createReqs  []api.CreateSecureLinkRequest
	listResp    []api.SecureLinkResponse
	listErr     error
	createCalls int
}

func (m *mockLinkAPI) CreateSecureLink(ctx context.Context, shareID, itemID string, req api.CreateSecureLinkRequest) (*api.CreateSecureLinkResponse, error) {
	m.createCalls++
	m.createReqs = append(m.createReqs, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *mockLinkAPI) GetAllSecureLinks(ctx context.Context) ([]api.SecureLinkResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listResp, nil
}

// mockItemReader implements itemReader for testing
type mockItemReader struct {
	items map[string]*storage.ItemEntity
}

func (m *mockItemReader) GetItem(ctx context.Context, shareID, itemID string) (*storage.ItemEntity, error) {
	if item, ok := m.items[itemID]; ok {
		return item, nil
	}
	return nil, storage.ErrItemNotFound
}

// mockKeyRepo implements sharekeys.Repository for testing
type mockKeyRepo struct {
	keys map[string]*models.ShareKey // по shareID
}

func (m *mockKeyRepo) GetLatestKeyForShare(ctx context.Context, userID, shareID string) (*models.ShareKey, error) {
	if k, ok := m.keys[shareID]; ok {
		return k, nil
	}
	return nil, storage.ErrShareKeyNotFound
}

func (m *mockKeyRepo) GetForShareAndRotation(ctx context.Context, userID, shareID string, rotation int64) (*models.ShareKey, error) {
	if k, ok := m.keys[shareID]; ok && k.Rotation == rotation {
		return k, nil
	}
	return nil, storage.ErrShareKeyNotFound
}

func (m *mockKeyRepo) GetShareKeys(ctx context.Context, userID, userAddress, shareID, signingKey string, source addresses.Source, storeLocally bool) ([]*models.ShareKey, error) {
	return nil, errors.New("not used")
}

type linkFixture struct {
	provider *crypto.Provider
	userKey  *crypto.EncryptionKey
	shareKey *crypto.EncryptionKey
	keys     *mockKeyRepo
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()

	userKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(userKey.Clear)

	shareKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Cleanup(shareKey.Clear)

	provider := crypto.NewProvider(userKey)

	var wrapped []byte
	err = provider.WithContext(func(c *crypto.Context) error {
		wrapped, err = c.Encrypt(shareKey.Bytes(), crypto.TagNone)
		return err
	})
	require.NoError(t, err)

	return &linkFixture{
		provider: provider,
		userKey:  userKey,
		shareKey: shareKey,
		keys: &mockKeyRepo{keys: map[string]*models.ShareKey{
			"s1": {UserID: "u1", ShareID: "s1", EncryptedKey: wrapped, Rotation: 1},
		}},
	}
}

// cachedItem собирает строку кэша с item-ключом под user-ключом
func (f *linkFixture) cachedItem(t *testing.T, itemID string) *storage.ItemEntity {
	t.Helper()

	itemKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	defer itemKey.Clear()

	var wrapped []byte
	err = f.provider.WithContext(func(c *crypto.Context) error {
		wrapped, err = c.Encrypt(itemKey.Bytes(), crypto.TagItemKey)
		return err
	})
	require.NoError(t, err)

	return &storage.ItemEntity{
		ID:           itemID,
		ShareID:      "s1",
		Content:      []byte("encrypted"),
		EncryptedKey: wrapped,
		Revision:     3,
		KeyRotation:  1,
		State:        int(models.ItemStateActive),
	}
}

// remoteLink собирает ответ сервера: link-ключ под share-ключом
func (f *linkFixture) remoteLink(t *testing.T, linkID string, rawLinkKey []byte) api.SecureLinkResponse {
	t.Helper()

	var encrypted []byte
	err := f.provider.WithKeyContext(f.shareKey, func(c *crypto.Context) error {
		var err error
		encrypted, err = c.Encrypt(rawLinkKey, crypto.TagLinkKey)
		return err
	})
	require.NoError(t, err)

	return api.SecureLinkResponse{
		LinkID:                  linkID,
		ShareID:                 "s1",
		ItemID:                  "i1",
		LinkURL:                 "https://pass.example.com/l/" + linkID,
		EncryptedLinkKey:        base64.StdEncoding.EncodeToString(encrypted),
		ExpirationTime:          time.Now().Add(time.Hour).Unix(),
		MaxReadCount:            5,
		LinkKeyShareKeyRotation: 1,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateSecureLink(t *testing.T) {
	f := newLinkFixture(t)
	remote := &mockLinkAPI{createResp: &api.CreateSecureLinkResponse{URL: "https://pass.example.com/l/abc"}}
	items := &mockItemReader{items: map[string]*storage.ItemEntity{"i1": f.cachedItem(t, "i1")}}
	repo := NewRepository(remote, items, f.keys, f.provider, testLogger())

	link, err := repo.CreateSecureLink(context.Background(), "u1", "s1", "i1", models.SecureLinkOptions{
		ExpirationTime: 7 * 24 * time.Hour,
		MaxReadCount:   5,
	})
	require.NoError(t, err)

	// Запрос несёт оба слоя шифрования, срок в секундах и rotation
	require.Len(t, remote.createReqs, 1)
	req := remote.createReqs[0]
	assert.NotEmpty(t, req.EncryptedItemKey)
	assert.NotEmpty(t, req.EncryptedLinkKey)
	assert.Equal(t, int64(3), req.Revision)
	assert.Equal(t, int64(7*24*3600), req.ExpirationTime)
	assert.Equal(t, 5, req.MaxReadCount)
	assert.Equal(t, int64(1), req.LinkKeyShareKeyRotation)

	// Фрагмент URL - сырой link-ключ в base64url без padding
	parts := strings.SplitN(link.URL, "#", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "https://pass.example.com/l/abc", parts[0])

	rawKey, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Len(t, rawKey, 32)

	// Link-ключ из фрагмента действительно открывает item-ключ из запроса
	encryptedItemKey, err := base64.StdEncoding.DecodeString(req.EncryptedItemKey)
	require.NoError(t, err)
	linkKey := crypto.NewEncryptionKey(rawKey)
	defer linkKey.Clear()
	err = f.provider.WithKeyContext(linkKey, func(c *crypto.Context) error {
		itemKey, err := c.Decrypt(encryptedItemKey, crypto.TagItemKey)
		if err != nil {
			return err
		}
		assert.Len(t, itemKey, 32)
		return nil
	})
	require.NoError(t, err)
}

func TestCreateSecureLink_MissingItemKey(t *testing.T) {
	f := newLinkFixture(t)
	remote := &mockLinkAPI{}
	item := f.cachedItem(t, "i1")
	item.EncryptedKey = nil
	items := &mockItemReader{items: map[string]*storage.ItemEntity{"i1": item}}
	repo := NewRepository(remote, items, f.keys, f.provider, testLogger())

	_, err := repo.CreateSecureLink(context.Background(), "u1", "s1", "i1", models.SecureLinkOptions{
		ExpirationTime: time.Hour,
	})
	assert.ErrorIs(t, err, ErrItemKeyMissing)

	// Ошибка до любого похода в сеть
	assert.Equal(t, 0, remote.createCalls)
}

func TestGetSecureLinks(t *testing.T) {
	f := newLinkFixture(t)

	rawKey := make([]byte, 32)
	for i := range rawKey {
		rawKey[i] = byte(i)
	}

	remote := &mockLinkAPI{listResp: []api.SecureLinkResponse{f.remoteLink(t, "l1", rawKey)}}
	repo := NewRepository(remote, &mockItemReader{}, f.keys, f.provider, testLogger())

	links, err := repo.GetSecureLinks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, links, 1)

	link := links[0]
	assert.Equal(t, "l1", link.ID)
	assert.Equal(t, 5, link.MaxReadCount)

	// Восстановленный фрагмент совпадает с исходным link-ключом
	parts := strings.SplitN(link.URL, "#", 2)
	require.Len(t, parts, 2)
	decoded, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Equal(t, rawKey, decoded)
}

func TestGetSecureLinks_DropsUnresolvable(t *testing.T) {
	f := newLinkFixture(t)

	rawKey := make([]byte, 32)
	good := f.remoteLink(t, "l1", rawKey)

	// Ссылка из share, ключа которого нет: молча выпадает из результата
	orphan := f.remoteLink(t, "l2", rawKey)
	orphan.ShareID = "unknown"

	remote := &mockLinkAPI{listResp: []api.SecureLinkResponse{good, orphan}}
	repo := NewRepository(remote, &mockItemReader{}, f.keys, f.provider, testLogger())

	links, err := repo.GetSecureLinks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "l1", links[0].ID)
}

func TestGetSecureLinks_MalformedLinkKey(t *testing.T) {
	f := newLinkFixture(t)

	link := f.remoteLink(t, "l1", make([]byte, 32))
	link.EncryptedLinkKey = base64.StdEncoding.EncodeToString([]byte("garbage"))

	remote := &mockLinkAPI{listResp: []api.SecureLinkResponse{link}}
	repo := NewRepository(remote, &mockItemReader{}, f.keys, f.provider, testLogger())

	links, err := repo.GetSecureLinks(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestGetSecureLinks_RemoteError(t *testing.T) {
	f := newLinkFixture(t)
	remote := &mockLinkAPI{listErr: errors.New("server unavailable")}
	repo := NewRepository(remote, &mockItemReader{}, f.keys, f.provider, testLogger())

	_, err := repo.GetSecureLinks(context.Background(), "u1")
	require.Error(t, err)
}
