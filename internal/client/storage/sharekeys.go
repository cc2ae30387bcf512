package storage

import (
	"context"
	"time"
)

// ShareKeyEntity представляет share-ключ одной rotation в кэше.
// EncryptedKey симметрично зашифрован user-ключом устройства.
// Строка share_keys ссылается на shares по FK: ключ нельзя сохранить
// раньше, чем сохранён его share.
type ShareKeyEntity struct {
	CreatedAt    time.Time
	UserID       string
	ShareID      string
	EncryptedKey []byte
	Rotation     int64
}

//go:generate moq -out sharekeys_mock.go . ShareKeyStorage

// ShareKeyStorage defines interface for the share_keys table
type ShareKeyStorage interface {
	// SaveShareKeys stores share keys; keys are never deleted, only superseded
	SaveShareKeys(ctx context.Context, keys []*ShareKeyEntity) error

	// GetLatestShareKey returns the key with the maximum rotation for the share
	// Returns ErrShareKeyNotFound if no keys exist
	GetLatestShareKey(ctx context.Context, shareID string) (*ShareKeyEntity, error)

	// GetShareKey returns the key for a specific (share, rotation) pair
	// Returns ErrShareKeyNotFound if it doesn't exist
	GetShareKey(ctx context.Context, userID, shareID string, rotation int64) (*ShareKeyEntity, error)

	// ListShareKeys returns all keys of the share ordered by rotation
	ListShareKeys(ctx context.Context, shareID string) ([]*ShareKeyEntity, error)
}
