package storage

import (
	"context"
	"time"
)

// ShareEntity представляет share в локальном зашифрованном кэше.
//
// Content - контент как пришёл с сервера (зашифрован share-ключом).
// ContentReencrypted - тот же контент, перешифрованный user-ключом
// устройства; заполняется второй фазой two-phase store. nil означает,
// что строка записана первой фазой и ещё не перешифрована - она валидна
// и расшифровываема через share-ключ.
type ShareEntity struct {
	CreatedAt             time.Time
	ID                    string
	UserID                string
	InviterEmail          string
	ContentSignatureEmail string
	SigningKey            []byte // публичный signing-ключ share
	Content               []byte
	ContentReencrypted    []byte
	ContentRotation       int64
	Permission            int
	IsOwner               bool
}

//go:generate moq -out shares_mock.go . ShareStorage

// ShareStorage defines interface for the share table of the encrypted cache
type ShareStorage interface {
	// UpsertShares stores or updates share rows
	UpsertShares(ctx context.Context, shares []*ShareEntity) error

	// GetShare retrieves a share by ID
	// Returns ErrShareNotFound if share doesn't exist
	GetShare(ctx context.Context, userID, shareID string) (*ShareEntity, error)

	// ListShares returns all shares for the user
	ListShares(ctx context.Context, userID string) ([]*ShareEntity, error)

	// DeleteShare removes a share row (share keys and items cascade)
	DeleteShare(ctx context.Context, shareID string) error

	// SelectShare updates the single-row selected-share pointer for the user
	SelectShare(ctx context.Context, userID, shareID string) error

	// GetSelectedShare returns the user's currently selected share
	// Returns ErrNoSelectedShare if nothing is selected
	GetSelectedShare(ctx context.Context, userID string) (*ShareEntity, error)
}
