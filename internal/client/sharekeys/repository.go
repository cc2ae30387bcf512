package sharekeys

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/passvault/internal/client/addresses"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/pkg/api"
)

//go:generate moq -out repository_mock.go . Repository

// Repository управляет share-ключами: выдаёт их из локального кэша,
// а при промахе догружает с сервера с проверкой подписи.
type Repository interface {
	// GetLatestKeyForShare возвращает ключ с максимальной rotation.
	// При промахе кэша догружает ключи с сервера и сохраняет их локально.
	GetLatestKeyForShare(ctx context.Context, userID, shareID string) (*models.ShareKey, error)

	// GetForShareAndRotation возвращает ключ конкретной rotation.
	// При промахе кэша догружает ключи с сервера и сохраняет их локально.
	GetForShareAndRotation(ctx context.Context, userID, shareID string, rotation int64) (*models.ShareKey, error)

	// GetShareKeys скачивает все ключи share и проверяет их подписи
	// address-ключом userAddress. Возвращает crypto.ErrInvalidAddressSignature
	// при провале проверки: вызывающий повторяет один раз с
	// addresses.SourceRemoteNoCache. При storeLocally=false ключи не
	// сохраняются в кэш: так делает двухфазное сохранение share, пока
	// родительская строка share ещё не записана.
	GetShareKeys(ctx context.Context, userID, userAddress, shareID, signingKey string, source addresses.Source, storeLocally bool) ([]*models.ShareKey, error)
}

type remoteAPI interface {
	GetShareKeys(ctx context.Context, shareID string) ([]api.ShareKeyResponse, error)
}

type keyStorage interface {
	storage.ShareKeyStorage
	GetShare(ctx context.Context, userID, shareID string) (*storage.ShareEntity, error)
}

type repository struct {
	remote    remoteAPI
	store     keyStorage
	addresses addresses.KeySource
	provider  *crypto.Provider
	logger    *slog.Logger
}

// NewRepository создает репозиторий share-ключей
func NewRepository(
	remote remoteAPI,
	store keyStorage,
	addrs addresses.KeySource,
	provider *crypto.Provider,
	logger *slog.Logger,
) Repository {
	return &repository{
		remote:    remote,
		store:     store,
		addresses: addrs,
		provider:  provider,
		logger:    logger,
	}
}

func (r *repository) GetLatestKeyForShare(ctx context.Context, userID, shareID string) (*models.ShareKey, error) {
	entity, err := r.store.GetLatestShareKey(ctx, shareID)
	if err == nil {
		return entityToModel(entity), nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to read latest share key: %w", err)
	}

	keys, err := r.populateFromRemote(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, storage.ErrShareKeyNotFound
	}

	latest := keys[0]
	for _, k := range keys[1:] {
		if k.Rotation > latest.Rotation {
			latest = k
		}
	}
	return latest, nil
}

func (r *repository) GetForShareAndRotation(ctx context.Context, userID, shareID string, rotation int64) (*models.ShareKey, error) {
	entity, err := r.store.GetShareKey(ctx, userID, shareID, rotation)
	if err == nil {
		return entityToModel(entity), nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to read share key: %w", err)
	}

	keys, err := r.populateFromRemote(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if k.Rotation == rotation {
			return k, nil
		}
	}
	return nil, storage.ErrShareKeyNotFound
}

// populateFromRemote догружает ключи share при промахе кэша.
// Share обязан уже лежать в кэше: оттуда берутся inviter и signing-ключ.
func (r *repository) populateFromRemote(ctx context.Context, userID, shareID string) ([]*models.ShareKey, error) {
	share, err := r.store.GetShare(ctx, userID, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share for key fetch: %w", err)
	}

	signingKey := base64.StdEncoding.EncodeToString(share.SigningKey)
	keys, err := r.GetShareKeys(ctx, userID, share.InviterEmail, shareID, signingKey, addresses.SourceLocalIfAvailable, true)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *repository) GetShareKeys(
	ctx context.Context,
	userID, userAddress, shareID, signingKey string,
	source addresses.Source,
	storeLocally bool,
) ([]*models.ShareKey, error) {
	signingKeyBytes, err := base64.StdEncoding.DecodeString(signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing key: %w", err)
	}

	// Signing-ключ приходит в составе share и сам по себе не доверен.
	// Якорь доверия - address-ключ из каталога ключей: они обязаны совпасть.
	addressKey, err := r.addresses.GetPublicAddressKey(ctx, userAddress, source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address key: %w", err)
	}
	if !bytes.Equal(signingKeyBytes, addressKey) {
		return nil, crypto.ErrInvalidAddressSignature
	}

	remoteKeys, err := r.remote.GetShareKeys(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch share keys: %w", err)
	}

	keys := make([]*models.ShareKey, 0, len(remoteKeys))
	entities := make([]*storage.ShareKeyEntity, 0, len(remoteKeys))

	for _, kr := range remoteKeys {
		encryptedKey, err := base64.StdEncoding.DecodeString(kr.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode share key rotation %d: %w", kr.KeyRotation, err)
		}
		signature, err := base64.StdEncoding.DecodeString(kr.KeySignature)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key signature rotation %d: %w", kr.KeyRotation, err)
		}

		if err := r.verifyKeySignature(addressKey, shareID, kr.KeyRotation, encryptedKey, signature); err != nil {
			return nil, err
		}

		key := &models.ShareKey{
			UserID:       userID,
			ShareID:      shareID,
			EncryptedKey: encryptedKey,
			Rotation:     kr.KeyRotation,
			CreatedAt:    time.Unix(kr.CreateTime, 0),
		}
		keys = append(keys, key)
		entities = append(entities, &storage.ShareKeyEntity{
			UserID:       key.UserID,
			ShareID:      key.ShareID,
			EncryptedKey: key.EncryptedKey,
			Rotation:     key.Rotation,
			CreatedAt:    key.CreatedAt,
		})
	}

	if storeLocally && len(entities) > 0 {
		if err := r.store.SaveShareKeys(ctx, entities); err != nil {
			return nil, fmt.Errorf("failed to store share keys: %w", err)
		}
	}

	r.logger.Debug("fetched share keys",
		"share_id", shareID,
		"count", len(keys),
		"stored", storeLocally,
	)

	return keys, nil
}

// verifyKeySignature проверяет подпись сырого ключа address-ключом.
// Ключ приходит обёрнутым user-ключом: для проверки его надо развернуть,
// сырые байты зачищаются сразу после.
func (r *repository) verifyKeySignature(addressKey ed25519.PublicKey, shareID string, rotation int64, encryptedKey, signature []byte) error {
	return r.provider.WithContext(func(c *crypto.Context) error {
		rawKey, err := c.Decrypt(encryptedKey, crypto.TagNone)
		if err != nil {
			return fmt.Errorf("failed to unwrap share key rotation %d: %w", rotation, err)
		}
		defer func() {
			for i := range rawKey {
				rawKey[i] = 0
			}
		}()

		return crypto.VerifyShareKey(addressKey, shareID, rotation, rawKey, signature)
	})
}

func entityToModel(e *storage.ShareKeyEntity) *models.ShareKey {
	return &models.ShareKey{
		UserID:       e.UserID,
		ShareID:      e.ShareID,
		EncryptedKey: e.EncryptedKey,
		Rotation:     e.Rotation,
		CreatedAt:    e.CreatedAt,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrShareKeyNotFound)
}
