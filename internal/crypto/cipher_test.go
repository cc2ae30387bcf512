package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	validKey := make([]byte, KeySize)
	_, _ = rand.Read(validKey)

	tests := []struct {
		name      string
		plaintext []byte
		tag       Tag
	}{
		{
			name:      "round trip without tag",
			plaintext: []byte("Hello, World!"),
			tag:       TagNone,
		},
		{
			name:      "round trip with item key tag",
			plaintext: []byte("raw key material 0123456789abcdef"),
			tag:       TagItemKey,
		},
		{
			name:      "round trip with vault content tag",
			plaintext: []byte(`{"name":"Personal","description":""}`),
			tag:       TagVaultContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.plaintext, validKey, tt.tag)
			require.NoError(t, err)

			// nonce + ciphertext + auth_tag
			assert.GreaterOrEqual(t, len(encrypted), NonceSize+len(tt.plaintext)+16)
			assert.NotEqual(t, tt.plaintext, encrypted[NonceSize:])

			decrypted, err := Decrypt(encrypted, validKey, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncrypt_InvalidKey(t *testing.T) {
	_, err := Encrypt([]byte("test"), make([]byte, 16), TagNone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption key must be 32 bytes")
}

func TestDecrypt_TagMismatch(t *testing.T) {
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)

	encrypted, err := Encrypt([]byte("secret"), key, TagItemKey)
	require.NoError(t, err)

	// Расшифровка с другой меткой обязана провалиться типизированной ошибкой
	_, err = Decrypt(encrypted, key, TagLinkKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTagMismatch)

	// Расшифровка без метки данных, зашифрованных с меткой, тоже провал
	_, err = Decrypt(encrypted, key, TagNone)
	require.Error(t, err)

	// С правильной меткой всё читается
	decrypted, err := Decrypt(encrypted, key, TagItemKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), decrypted)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)
	otherKey := make([]byte, KeySize)
	_, _ = rand.Read(otherKey)

	encrypted, err := Encrypt([]byte("secret"), key, TagNone)
	require.NoError(t, err)

	_, err = Decrypt(encrypted, otherKey, TagNone)
	require.Error(t, err)
}

func TestDecrypt_TooShort(t *testing.T) {
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)

	_, err := Decrypt(make([]byte, 5), key, TagNone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestEncryptToBase64RoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)

	encoded, err := EncryptToBase64([]byte("payload"), key, TagVaultContent)
	require.NoError(t, err)

	decrypted, err := DecryptFromBase64(encoded, key, TagVaultContent)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), decrypted)
}
