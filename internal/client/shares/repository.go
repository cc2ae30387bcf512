package shares

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/passvault/internal/client/addresses"
	"github.com/iudanet/passvault/internal/client/sharekeys"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/internal/validation"
	"github.com/iudanet/passvault/pkg/api"
)

// ErrCannotDeleteSelectedVault возвращается при попытке удалить текущий
// выбранный vault. Сначала надо выбрать другой.
var ErrCannotDeleteSelectedVault = errors.New("cannot delete the currently selected vault")

// ErrMissingContentRotation возвращается когда сервер вернул share
// без rotation id контента. Это нарушение контракта сервера.
var ErrMissingContentRotation = errors.New("server returned share without content rotation id")

//go:generate moq -out repository_mock.go . Repository

// Repository управляет shares: создание vault, синхронизация с сервером
// и расшифрованные проекции локального кэша.
type Repository interface {
	// CreateVault создает vault на сервере и сохраняет его локально
	CreateVault(ctx context.Context, userID string, vault models.NewVault) (*models.Share, error)

	// GetByID возвращает share: сначала из кэша, при промахе - с сервера
	GetByID(ctx context.Context, userID, shareID string) (*models.Share, error)

	// RefreshShares синхронизирует полный список shares с сервером
	RefreshShares(ctx context.Context, userID string) ([]*models.Share, error)

	// DeleteVault удаляет vault: сначала на сервере, потом локально.
	// Возвращает ErrCannotDeleteSelectedVault для выбранного vault.
	DeleteVault(ctx context.Context, userID, shareID string) error

	// SelectVault делает share текущим выбранным vault
	SelectVault(ctx context.Context, userID, shareID string) error

	// ListShares возвращает расшифрованные shares из кэша.
	// Пустой кэш дает пустой список сразу, без похода в сеть.
	ListShares(ctx context.Context, userID string) ([]*models.Share, error)

	// GetSelectedShare возвращает текущий выбранный vault из кэша
	GetSelectedShare(ctx context.Context, userID string) (*models.Share, error)

	// ObserveAllShares подписывает на расшифрованный список shares.
	// Подписчик сразу получает текущий снимок кэша, затем свежий список
	// после каждого изменения. Медленный подписчик теряет промежуточные
	// снимки, но всегда увидит последний. Отписка через cancel.
	ObserveAllShares(ctx context.Context, userID string) (ch <-chan []*models.Share, cancel func())

	// ObserveSelectedShare подписывает на текущий выбранный vault.
	// nil в канале означает, что vault не выбран.
	ObserveSelectedShare(ctx context.Context, userID string) (ch <-chan *models.Share, cancel func())
}

type remoteAPI interface {
	CreateVault(ctx context.Context, req api.CreateVaultRequest) (*api.ShareResponse, error)
	GetShares(ctx context.Context) ([]api.ShareResponse, error)
	GetShareByID(ctx context.Context, shareID string) (*api.ShareResponse, error)
	DeleteVault(ctx context.Context, shareID string) error
}

type shareStorage interface {
	storage.TxRunner
	storage.ShareStorage
	SaveShareKeys(ctx context.Context, keys []*storage.ShareKeyEntity) error
}

type allSharesSub struct {
	userID string
	ch     chan []*models.Share
}

type selectedShareSub struct {
	userID string
	ch     chan *models.Share
}

type repository struct {
	remote   remoteAPI
	store    shareStorage
	keys     sharekeys.Repository
	provider *crypto.Provider
	logger   *slog.Logger

	mu      sync.Mutex
	allSubs map[string]*allSharesSub
	selSubs map[string]*selectedShareSub
}

// NewRepository создает репозиторий shares
func NewRepository(
	remote remoteAPI,
	store shareStorage,
	keys sharekeys.Repository,
	provider *crypto.Provider,
	logger *slog.Logger,
) Repository {
	return &repository{
		remote:   remote,
		store:    store,
		keys:     keys,
		provider: provider,
		logger:   logger,
		allSubs:  make(map[string]*allSharesSub),
		selSubs:  make(map[string]*selectedShareSub),
	}
}

func (r *repository) CreateVault(ctx context.Context, userID string, vault models.NewVault) (*models.Share, error) {
	if err := validation.ValidateVaultName(vault.Name); err != nil {
		return nil, err
	}

	content, err := json.Marshal(models.VaultContent{
		Name:        vault.Name,
		Description: vault.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault content: %w", err)
	}

	vaultKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	defer vaultKey.Clear()

	var encryptedContent []byte
	err = r.provider.WithKeyContext(vaultKey, func(c *crypto.Context) error {
		encryptedContent, err = c.Encrypt(content, crypto.TagVaultContent)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt vault content: %w", err)
	}

	// Escrow: vault-ключ уходит на сервер обёрнутым user-ключом,
	// сервер plaintext ключа не видит.
	var wrappedKey []byte
	err = r.provider.WithContext(func(c *crypto.Context) error {
		wrappedKey, err = c.Encrypt(vaultKey.Bytes(), crypto.TagNone)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wrap vault key: %w", err)
	}

	resp, err := r.remote.CreateVault(ctx, api.CreateVaultRequest{
		Content:           base64.StdEncoding.EncodeToString(encryptedContent),
		EncryptedVaultKey: base64.StdEncoding.EncodeToString(wrappedKey),
	})
	if err != nil {
		return nil, fmt.Errorf("create vault failed: %w", err)
	}
	if resp.ContentRotationID == 0 {
		return nil, ErrMissingContentRotation
	}

	signingKey, err := base64.StdEncoding.DecodeString(resp.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing key: %w", err)
	}

	entity := &storage.ShareEntity{
		ID:                    resp.ShareID,
		UserID:                userID,
		InviterEmail:          resp.InviterEmail,
		ContentSignatureEmail: resp.ContentSignatureEmail,
		SigningKey:            signingKey,
		Content:               encryptedContent,
		ContentRotation:       resp.ContentRotationID,
		Permission:            resp.Permission,
		IsOwner:               true,
		CreatedAt:             time.Unix(resp.CreateTime, 0),
	}

	// Локальная копия vault-ключа получает назначенную сервером rotation.
	keyEntity := &storage.ShareKeyEntity{
		UserID:       userID,
		ShareID:      resp.ShareID,
		EncryptedKey: wrappedKey,
		Rotation:     resp.ContentRotationID,
		CreatedAt:    time.Unix(resp.CreateTime, 0),
	}

	var reencrypted []byte
	err = r.provider.WithContext(func(c *crypto.Context) error {
		reencrypted, err = c.Encrypt(content, crypto.TagVaultContent)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reencrypt vault content: %w", err)
	}

	// Порядок внутри транзакции фиксирован FK: строка share без
	// перешифрованного контента, затем её ключи, затем строка целиком.
	err = r.store.InTransaction(ctx, func(ctx context.Context) error {
		if err := r.store.UpsertShares(ctx, []*storage.ShareEntity{entity}); err != nil {
			return fmt.Errorf("failed to store share: %w", err)
		}
		if err := r.store.SaveShareKeys(ctx, []*storage.ShareKeyEntity{keyEntity}); err != nil {
			return fmt.Errorf("failed to store vault key: %w", err)
		}
		entity.ContentReencrypted = reencrypted
		if err := r.store.UpsertShares(ctx, []*storage.ShareEntity{entity}); err != nil {
			return fmt.Errorf("failed to store reencrypted share: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("created vault", "share_id", resp.ShareID, "rotation", resp.ContentRotationID)
	r.notifyObservers(ctx, userID)

	return r.hydrate(ctx, entity, false)
}

func (r *repository) GetByID(ctx context.Context, userID, shareID string) (*models.Share, error) {
	entity, err := r.store.GetShare(ctx, userID, shareID)
	if err == nil {
		return r.hydrateWithSelection(ctx, userID, entity)
	}
	if !errors.Is(err, storage.ErrShareNotFound) {
		return nil, fmt.Errorf("failed to read share: %w", err)
	}

	resp, err := r.remote.GetShareByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("get share failed: %w", err)
	}

	entity, err = r.storeShareRetrying(ctx, userID, resp)
	if err != nil {
		return nil, err
	}
	r.notifyObservers(ctx, userID)
	return r.hydrateWithSelection(ctx, userID, entity)
}

func (r *repository) RefreshShares(ctx context.Context, userID string) ([]*models.Share, error) {
	remote, err := r.remote.GetShares(ctx)
	if err != nil {
		return nil, fmt.Errorf("get shares failed: %w", err)
	}

	remoteIDs := make(map[string]struct{}, len(remote))
	entities := make([]*storage.ShareEntity, 0, len(remote))
	for i := range remote {
		remoteIDs[remote[i].ShareID] = struct{}{}
		entity, err := r.storeShareRetrying(ctx, userID, &remote[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	// Shares, которых сервер больше не отдаёт, уходят из кэша
	// вместе со своими ключами и items (cascade).
	local, err := r.store.ListShares(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached shares: %w", err)
	}
	for _, e := range local {
		if _, ok := remoteIDs[e.ID]; ok {
			continue
		}
		if err := r.store.DeleteShare(ctx, e.ID); err != nil && !errors.Is(err, storage.ErrShareNotFound) {
			return nil, fmt.Errorf("failed to drop stale share %s: %w", e.ID, err)
		}
		r.logger.Debug("dropped stale share", "share_id", e.ID)
	}

	r.notifyObservers(ctx, userID)

	selectedID := r.selectedShareID(ctx, userID)

	shares := make([]*models.Share, 0, len(entities))
	for _, e := range entities {
		share, err := r.hydrate(ctx, e, e.ID == selectedID)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func (r *repository) DeleteVault(ctx context.Context, userID, shareID string) error {
	selected, err := r.store.GetSelectedShare(ctx, userID)
	if err == nil && selected.ID == shareID {
		return ErrCannotDeleteSelectedVault
	}
	if err != nil && !errors.Is(err, storage.ErrNoSelectedShare) {
		return fmt.Errorf("failed to read selected share: %w", err)
	}

	// Сервер первым: провал remote-удаления не должен локально стереть
	// данные, которые сервер всё ещё считает существующими.
	if err := r.remote.DeleteVault(ctx, shareID); err != nil {
		return fmt.Errorf("delete vault failed: %w", err)
	}
	if err := r.store.DeleteShare(ctx, shareID); err != nil && !errors.Is(err, storage.ErrShareNotFound) {
		return fmt.Errorf("failed to delete cached share: %w", err)
	}

	r.logger.Info("deleted vault", "share_id", shareID)
	r.notifyObservers(ctx, userID)
	return nil
}

func (r *repository) SelectVault(ctx context.Context, userID, shareID string) error {
	if err := r.store.SelectShare(ctx, userID, shareID); err != nil {
		return fmt.Errorf("failed to select vault: %w", err)
	}
	r.notifyObservers(ctx, userID)
	return nil
}

func (r *repository) ListShares(ctx context.Context, userID string) ([]*models.Share, error) {
	entities, err := r.store.ListShares(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	selectedID := r.selectedShareID(ctx, userID)

	shares := make([]*models.Share, 0, len(entities))
	for _, e := range entities {
		share, err := r.hydrate(ctx, e, e.ID == selectedID)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func (r *repository) GetSelectedShare(ctx context.Context, userID string) (*models.Share, error) {
	entity, err := r.store.GetSelectedShare(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, entity, true)
}

func (r *repository) ObserveAllShares(ctx context.Context, userID string) (<-chan []*models.Share, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan []*models.Share, 1)
	if shares, err := r.ListShares(ctx, userID); err == nil {
		ch <- shares
	} else {
		r.logger.Warn("failed to read shares snapshot for observer", "error", err)
	}
	r.allSubs[id] = &allSharesSub{userID: userID, ch: ch}

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.allSubs[id]; ok {
			delete(r.allSubs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

func (r *repository) ObserveSelectedShare(ctx context.Context, userID string) (<-chan *models.Share, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Share, 1)
	share, err := r.GetSelectedShare(ctx, userID)
	switch {
	case err == nil:
		ch <- share
	case errors.Is(err, storage.ErrNoSelectedShare):
		ch <- nil
	default:
		r.logger.Warn("failed to read selected share for observer", "error", err)
	}
	r.selSubs[id] = &selectedShareSub{userID: userID, ch: ch}

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.selSubs[id]; ok {
			delete(r.selSubs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// sendLatest кладет значение в буферизованный на один элемент канал,
// вытесняя устаревшее, чтобы никогда не блокироваться на медленном подписчике
func sendLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// notifyObservers рассылает свежие проекции подписчикам после
// изменения кэша shares
func (r *repository) notifyObservers(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*models.Share
	allComputed := false
	for _, sub := range r.allSubs {
		if sub.userID != userID {
			continue
		}
		if !allComputed {
			shares, err := r.ListShares(ctx, userID)
			if err != nil {
				r.logger.Warn("failed to project shares for observers", "error", err)
				break
			}
			all = shares
			allComputed = true
		}
		sendLatest(sub.ch, all)
	}

	var selected *models.Share
	selComputed := false
	for _, sub := range r.selSubs {
		if sub.userID != userID {
			continue
		}
		if !selComputed {
			share, err := r.GetSelectedShare(ctx, userID)
			if err != nil && !errors.Is(err, storage.ErrNoSelectedShare) {
				r.logger.Warn("failed to project selected share for observers", "error", err)
				break
			}
			selected = share
			selComputed = true
		}
		sendLatest(sub.ch, selected)
	}
}

// storeShareRetrying выполняет two-phase store с одним повтором:
// при провале проверки подписи address-ключи принудительно
// перечитываются с сервера, минуя кэш (недавняя ротация адреса).
func (r *repository) storeShareRetrying(ctx context.Context, userID string, resp *api.ShareResponse) (*storage.ShareEntity, error) {
	entity, err := r.storeShare(ctx, userID, resp, addresses.SourceLocalIfAvailable)
	if errors.Is(err, crypto.ErrInvalidAddressSignature) {
		r.logger.Warn("address signature mismatch, refetching address keys", "share_id", resp.ShareID)
		return r.storeShare(ctx, userID, resp, addresses.SourceRemoteNoCache)
	}
	return entity, err
}

// storeShare сохраняет share в кэш двумя фазами внутри одной транзакции:
// строка без перешифрованного контента -> ключи share -> строка с
// контентом, перешифрованным user-ключом. Перешифровка требует ключей,
// а ключи по FK требуют уже существующей строки share.
func (r *repository) storeShare(ctx context.Context, userID string, resp *api.ShareResponse, source addresses.Source) (*storage.ShareEntity, error) {
	if resp.ContentRotationID == 0 {
		return nil, ErrMissingContentRotation
	}

	content, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode share content: %w", err)
	}
	contentSignature, err := base64.StdEncoding.DecodeString(resp.ContentSignature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content signature: %w", err)
	}
	signingKey, err := base64.StdEncoding.DecodeString(resp.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing key: %w", err)
	}

	// Подпись контента проверяется по ciphertext: сервер подписывает
	// blob, не видя plaintext.
	if len(signingKey) != ed25519.PublicKeySize ||
		!ed25519.Verify(ed25519.PublicKey(signingKey), content, contentSignature) {
		return nil, crypto.ErrInvalidAddressSignature
	}

	entity := &storage.ShareEntity{
		ID:                    resp.ShareID,
		UserID:                userID,
		InviterEmail:          resp.InviterEmail,
		ContentSignatureEmail: resp.ContentSignatureEmail,
		SigningKey:            signingKey,
		Content:               content,
		ContentRotation:       resp.ContentRotationID,
		Permission:            resp.Permission,
		IsOwner:               resp.Owner,
		CreatedAt:             time.Unix(resp.CreateTime, 0),
	}

	err = r.store.InTransaction(ctx, func(ctx context.Context) error {
		if err := r.store.UpsertShares(ctx, []*storage.ShareEntity{entity}); err != nil {
			return fmt.Errorf("failed to store share: %w", err)
		}

		keys, err := r.keys.GetShareKeys(ctx, userID, resp.InviterEmail, resp.ShareID, resp.SigningKey, source, true)
		if err != nil {
			return err
		}

		var contentKey *models.ShareKey
		for _, k := range keys {
			if k.Rotation == resp.ContentRotationID {
				contentKey = k
				break
			}
		}
		if contentKey == nil {
			return fmt.Errorf("share %s: %w for rotation %d", resp.ShareID, storage.ErrShareKeyNotFound, resp.ContentRotationID)
		}

		reencrypted, err := r.reencryptContent(content, contentKey)
		if err != nil {
			return err
		}

		entity.ContentReencrypted = reencrypted
		if err := r.store.UpsertShares(ctx, []*storage.ShareEntity{entity}); err != nil {
			return fmt.Errorf("failed to store reencrypted share: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// reencryptContent разворачивает контент share-ключом и заворачивает
// обратно user-ключом, чтобы чтение из кэша не требовало share-ключей.
func (r *repository) reencryptContent(content []byte, key *models.ShareKey) ([]byte, error) {
	var plaintext []byte
	err := r.provider.WithContext(func(c *crypto.Context) error {
		rawKey, err := c.Decrypt(key.EncryptedKey, crypto.TagNone)
		if err != nil {
			return fmt.Errorf("failed to unwrap share key: %w", err)
		}
		shareKey := crypto.NewEncryptionKey(rawKey)
		defer shareKey.Clear()

		return r.provider.WithKeyContext(shareKey, func(sc *crypto.Context) error {
			plaintext, err = sc.Decrypt(content, crypto.TagVaultContent)
			if err != nil {
				return fmt.Errorf("failed to decrypt share content: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	var reencrypted []byte
	err = r.provider.WithContext(func(c *crypto.Context) error {
		var err error
		reencrypted, err = c.Encrypt(plaintext, crypto.TagVaultContent)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reencrypt share content: %w", err)
	}
	return reencrypted, nil
}

// hydrate превращает строку кэша в расшифрованную доменную проекцию
func (r *repository) hydrate(ctx context.Context, e *storage.ShareEntity, selected bool) (*models.Share, error) {
	var plaintext []byte

	if e.ContentReencrypted != nil {
		err := r.provider.WithContext(func(c *crypto.Context) error {
			var err error
			plaintext, err = c.Decrypt(e.ContentReencrypted, crypto.TagVaultContent)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt cached share content: %w", err)
		}
	} else {
		// Строка первой фазы: падение случилось до перешифровки.
		// Контент всё ещё читается через share-ключ.
		key, err := r.keys.GetForShareAndRotation(ctx, e.UserID, e.ID, e.ContentRotation)
		if err != nil {
			return nil, fmt.Errorf("failed to load content key: %w", err)
		}
		err = r.provider.WithContext(func(c *crypto.Context) error {
			rawKey, err := c.Decrypt(key.EncryptedKey, crypto.TagNone)
			if err != nil {
				return fmt.Errorf("failed to unwrap share key: %w", err)
			}
			shareKey := crypto.NewEncryptionKey(rawKey)
			defer shareKey.Clear()

			return r.provider.WithKeyContext(shareKey, func(sc *crypto.Context) error {
				plaintext, err = sc.Decrypt(e.Content, crypto.TagVaultContent)
				return err
			})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt share content: %w", err)
		}
	}

	var content models.VaultContent
	if err := json.Unmarshal(plaintext, &content); err != nil {
		return nil, fmt.Errorf("failed to parse vault content: %w", err)
	}

	return &models.Share{
		ID:              e.ID,
		UserID:          e.UserID,
		InviterEmail:    e.InviterEmail,
		Name:            content.Name,
		Description:     content.Description,
		ContentRotation: e.ContentRotation,
		Permission:      models.SharePermission(e.Permission),
		IsOwner:         e.IsOwner,
		IsSelected:      selected,
		CreatedAt:       e.CreatedAt,
	}, nil
}

func (r *repository) hydrateWithSelection(ctx context.Context, userID string, e *storage.ShareEntity) (*models.Share, error) {
	return r.hydrate(ctx, e, e.ID == r.selectedShareID(ctx, userID))
}

func (r *repository) selectedShareID(ctx context.Context, userID string) string {
	selected, err := r.store.GetSelectedShare(ctx, userID)
	if err != nil {
		return ""
	}
	return selected.ID
}
