package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_WithContext(t *testing.T) {
	userKey, err := GenerateKey()
	require.NoError(t, err)
	defer userKey.Clear()

	provider := NewProvider(userKey)

	var encrypted []byte
	err = provider.WithContext(func(c *Context) error {
		encrypted, err = c.Encrypt([]byte("secret"), TagNone)
		return err
	})
	require.NoError(t, err)

	err = provider.WithContext(func(c *Context) error {
		decrypted, err := c.Decrypt(encrypted, TagNone)
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("secret"), decrypted)
		return nil
	})
	require.NoError(t, err)
}

func TestProvider_WithKeyContext(t *testing.T) {
	userKey, err := GenerateKey()
	require.NoError(t, err)
	defer userKey.Clear()

	explicitKey, err := GenerateKey()
	require.NoError(t, err)
	defer explicitKey.Clear()

	provider := NewProvider(userKey)

	var encrypted []byte
	err = provider.WithKeyContext(explicitKey, func(c *Context) error {
		encrypted, err = c.Encrypt([]byte("payload"), TagLinkKey)
		return err
	})
	require.NoError(t, err)

	// User-ключ не может прочитать данные явного ключа
	err = provider.WithContext(func(c *Context) error {
		_, err := c.Decrypt(encrypted, TagLinkKey)
		return err
	})
	require.Error(t, err)

	// Провайдер не принимает владение: ключ жив после блока
	assert.False(t, explicitKey.IsCleared())
}

func TestProvider_ClearedKey(t *testing.T) {
	userKey, err := GenerateKey()
	require.NoError(t, err)
	userKey.Clear()

	provider := NewProvider(userKey)
	err = provider.WithContext(func(c *Context) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyCleared)

	cleared, err := GenerateKey()
	require.NoError(t, err)
	cleared.Clear()

	err = provider.WithKeyContext(cleared, func(c *Context) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyCleared)
}

func TestContext_StringRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	defer key.Clear()

	provider := NewProvider(key)
	err = provider.WithContext(func(c *Context) error {
		encrypted, err := c.EncryptString("токен доступа")
		require.NoError(t, err)

		decrypted, err := c.DecryptString(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "токен доступа", decrypted)
		return nil
	})
	require.NoError(t, err)
}
