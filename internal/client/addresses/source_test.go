package addresses

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/passvault/pkg/api"
)

// mockAddressAPI implements remoteAPI for testing
type mockAddressAPI struct {
	resp    *api.AddressKeyResponse
	err     error
	calls   int
	noCache []bool
}

func (m *mockAddressAPI) GetAddressKey(ctx context.Context, email string, noCache bool) (*api.AddressKeyResponse, error) {
	m.calls++
	m.noCache = append(m.noCache, noCache)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generateAddressKey(t *testing.T) (ed25519.PublicKey, string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, base64.StdEncoding.EncodeToString(pub)
}

func TestGetPublicAddressKey_CachesResult(t *testing.T) {
	pub, encoded := generateAddressKey(t)
	remote := &mockAddressAPI{resp: &api.AddressKeyResponse{Key: encoded}}
	source := NewKeySource(remote, testLogger())
	ctx := context.Background()

	key, err := source.GetPublicAddressKey(ctx, "user@example.com", SourceLocalIfAvailable)
	require.NoError(t, err)
	assert.Equal(t, pub, key)
	assert.Equal(t, 1, remote.calls)

	// Повторный запрос обслуживается из кэша, без похода в сеть
	key, err = source.GetPublicAddressKey(ctx, "user@example.com", SourceLocalIfAvailable)
	require.NoError(t, err)
	assert.Equal(t, pub, key)
	assert.Equal(t, 1, remote.calls)
}

func TestGetPublicAddressKey_RemoteNoCacheBypassesCache(t *testing.T) {
	pub, encoded := generateAddressKey(t)
	remote := &mockAddressAPI{resp: &api.AddressKeyResponse{Key: encoded}}
	source := NewKeySource(remote, testLogger())
	ctx := context.Background()

	_, err := source.GetPublicAddressKey(ctx, "user@example.com", SourceLocalIfAvailable)
	require.NoError(t, err)

	// Принудительный источник игнорирует кэш и передаёт noCache серверу
	key, err := source.GetPublicAddressKey(ctx, "user@example.com", SourceRemoteNoCache)
	require.NoError(t, err)
	assert.Equal(t, pub, key)
	require.Equal(t, 2, remote.calls)
	assert.False(t, remote.noCache[0])
	assert.True(t, remote.noCache[1])
}

func TestGetPublicAddressKey_RemoteError(t *testing.T) {
	remote := &mockAddressAPI{err: errors.New("network down")}
	source := NewKeySource(remote, testLogger())

	_, err := source.GetPublicAddressKey(context.Background(), "user@example.com", SourceLocalIfAvailable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch address key")
}

func TestGetPublicAddressKey_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{
			name: "not base64",
			key:  "%%%not-base64%%%",
		},
		{
			name: "wrong size",
			key:  base64.StdEncoding.EncodeToString([]byte("short")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockAddressAPI{resp: &api.AddressKeyResponse{Key: tt.key}}
			source := NewKeySource(remote, testLogger())

			_, err := source.GetPublicAddressKey(context.Background(), "user@example.com", SourceLocalIfAvailable)
			require.Error(t, err)
		})
	}
}
