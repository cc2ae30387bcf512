package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key.Bytes(), KeySize)
	assert.False(t, key.IsCleared())

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, key.Bytes(), other.Bytes(), "два ключа не должны совпадать")
}

func TestEncryptionKey_Clear(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	key.Clear()
	assert.True(t, key.IsCleared())
	assert.Nil(t, key.Bytes())

	// Повторный Clear безопасен
	key.Clear()
	assert.True(t, key.IsCleared())
}

func TestEncryptionKey_Clone(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	clone := key.Clone()
	assert.Equal(t, key.Bytes(), clone.Bytes())

	// Зачистка оригинала не трогает копию
	original := make([]byte, KeySize)
	copy(original, key.Bytes())
	key.Clear()

	assert.True(t, key.IsCleared())
	assert.False(t, clone.IsCleared())
	assert.Equal(t, original, clone.Bytes())

	clone.Clear()
	assert.True(t, clone.IsCleared())
}

func TestEncryptionKey_CloneCleared(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	key.Clear()

	clone := key.Clone()
	assert.True(t, clone.IsCleared())
}

func TestDeriveKeys(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	keys, err := DeriveKeys("masterPassword123", "alice", salt)
	require.NoError(t, err)
	assert.Len(t, keys.AuthKey, Argon2KeyLen)
	assert.Len(t, keys.UserKey.Bytes(), Argon2KeyLen)

	// AuthKey и UserKey независимы
	assert.NotEqual(t, keys.AuthKey, keys.UserKey.Bytes())

	// Деривация детерминирована
	again, err := DeriveKeys("masterPassword123", "alice", salt)
	require.NoError(t, err)
	assert.Equal(t, keys.AuthKey, again.AuthKey)
	assert.Equal(t, keys.UserKey.Bytes(), again.UserKey.Bytes())

	// Другой пароль дает другие ключи
	other, err := DeriveKeys("differentPassword", "alice", salt)
	require.NoError(t, err)
	assert.NotEqual(t, keys.AuthKey, other.AuthKey)
}

func TestDeriveKeys_Validation(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	_, err = DeriveKeys("", "alice", salt)
	require.Error(t, err)

	_, err = DeriveKeys("password", "", salt)
	require.Error(t, err)

	_, err = DeriveKeys("password", "alice", make([]byte, 8))
	require.Error(t, err)
}
