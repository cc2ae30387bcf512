package storage

import (
	"context"
	"time"
)

// ItemEntity представляет item в локальном кэше.
// Content зашифрован item-ключом как на сервере; EncryptedKey - item-ключ,
// перешифрованный user-ключом устройства при refresh (nil если item создан
// до поддержки item-ключей).
type ItemEntity struct {
	CreatedAt    time.Time
	ModifiedAt   time.Time
	ID           string
	ShareID      string
	Content      []byte
	EncryptedKey []byte
	Revision     int64
	KeyRotation  int64
	State        int
}

//go:generate moq -out items_mock.go . ItemStorage

// ItemStorage defines interface for the items table
type ItemStorage interface {
	// UpsertItems stores or updates item rows
	UpsertItems(ctx context.Context, items []*ItemEntity) error

	// GetItem retrieves an item by (share, item) pair
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, shareID, itemID string) (*ItemEntity, error)

	// ListItems returns all items of the share
	ListItems(ctx context.Context, shareID string) ([]*ItemEntity, error)

	// UpdateItemState moves an item between active and trashed
	UpdateItemState(ctx context.Context, shareID, itemID string, state int) error

	// DeleteItem removes an item row
	DeleteItem(ctx context.Context, shareID, itemID string) error

	// CountItems returns the number of items cached for the share
	CountItems(ctx context.Context, shareID string) (int, error)
}
