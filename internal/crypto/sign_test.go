package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyShareKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	rawKey := make([]byte, KeySize)
	_, _ = rand.Read(rawKey)

	signature := ed25519.Sign(priv, ShareKeyPayload("share-1", 3, rawKey))

	err = VerifyShareKey(pub, "share-1", 3, rawKey, signature)
	require.NoError(t, err)
}

func TestVerifyShareKey_Invalid(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	rawKey := make([]byte, KeySize)
	_, _ = rand.Read(rawKey)
	signature := ed25519.Sign(priv, ShareKeyPayload("share-1", 3, rawKey))

	tests := []struct {
		name     string
		key      ed25519.PublicKey
		shareID  string
		rotation int64
	}{
		{name: "wrong public key", key: otherPub, shareID: "share-1", rotation: 3},
		{name: "wrong share id", key: pub, shareID: "share-2", rotation: 3},
		{name: "wrong rotation", key: pub, shareID: "share-1", rotation: 4},
		{name: "malformed public key", key: ed25519.PublicKey{1, 2, 3}, shareID: "share-1", rotation: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyShareKey(tt.key, tt.shareID, tt.rotation, rawKey, signature)
			assert.ErrorIs(t, err, ErrInvalidAddressSignature)
		})
	}
}

func TestShareKeyPayload(t *testing.T) {
	rawKey := []byte{0xAA, 0xBB}
	payload := ShareKeyPayload("s", 1, rawKey)

	// shareID || rotation big endian || raw key
	assert.Equal(t, byte('s'), payload[0])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, payload[1:9])
	assert.Equal(t, rawKey, payload[9:])
}
