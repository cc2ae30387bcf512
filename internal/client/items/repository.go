package items

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/passvault/internal/client/sharekeys"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/internal/validation"
	"github.com/iudanet/passvault/pkg/api"
)

// ErrItemKeyMissing возвращается когда у кэшированного item нет
// item-ключа и расшифровать контент невозможно
var ErrItemKeyMissing = errors.New("item has no item key")

// Progress - прогресс постраничной синхронизации items одного share
type Progress struct {
	Current int
	Total   int
}

// ProgressUpdate - одно сообщение канала прогресса.
// Err != nil означает, что синхронизация оборвалась; канал после
// этого закрывается.
type ProgressUpdate struct {
	Err      error
	Progress Progress
}

//go:generate moq -out repository_mock.go . Repository

// Repository управляет items: создание и изменение с шифрованием
// item-ключом, постраничная синхронизация и проекции кэша.
type Repository interface {
	// CreateItem шифрует contents и создает item на сервере
	CreateItem(ctx context.Context, userID, shareID string, contents models.ItemContents) (*models.Item, error)

	// UpdateItem шифрует contents и обновляет item; revision растёт на сервере
	UpdateItem(ctx context.Context, userID, shareID, itemID string, contents models.ItemContents) (*models.Item, error)

	// RefreshItems синхронизирует все items share с сервером.
	// Возвращает число items после синхронизации.
	RefreshItems(ctx context.Context, userID, shareID string) (int, error)

	// RefreshItemsAndObserveProgress - то же, но с каналом прогресса
	// по страницам. Канал закрывается по завершении; последнее сообщение
	// несёт ошибку, если синхронизация оборвалась.
	RefreshItemsAndObserveProgress(ctx context.Context, userID, shareID string) <-chan ProgressUpdate

	// GetByID возвращает item из кэша
	GetByID(ctx context.Context, shareID, itemID string) (*models.Item, error)

	// ListItems возвращает items share из кэша без похода в сеть
	ListItems(ctx context.Context, shareID string) ([]*models.Item, error)

	// DecryptContents расшифровывает payload item'а
	DecryptContents(ctx context.Context, item *models.Item) (*models.ItemContents, error)

	// TrashItem переводит item в корзину: сначала на сервере, потом в кэше
	TrashItem(ctx context.Context, shareID, itemID string) error

	// UntrashItem возвращает item из корзины
	UntrashItem(ctx context.Context, shareID, itemID string) error

	// DeleteItem удаляет item навсегда: сначала на сервере, потом в кэше
	DeleteItem(ctx context.Context, shareID, itemID string) error
}

type remoteAPI interface {
	GetItemsPage(ctx context.Context, shareID, pageToken string) (*api.ItemsPageResponse, error)
	CreateItem(ctx context.Context, shareID string, req api.CreateItemRequest) (*api.ItemResponse, error)
	UpdateItem(ctx context.Context, shareID, itemID string, req api.UpdateItemRequest) (*api.ItemResponse, error)
	UpdateItemState(ctx context.Context, shareID, itemID string, req api.UpdateItemStateRequest) (*api.ItemResponse, error)
	DeleteItem(ctx context.Context, shareID, itemID string) error
}

type itemStorage interface {
	storage.TxRunner
	storage.ItemStorage
}

type repository struct {
	remote   remoteAPI
	store    itemStorage
	keys     sharekeys.Repository
	provider *crypto.Provider
	logger   *slog.Logger
}

// NewRepository создает репозиторий items
func NewRepository(
	remote remoteAPI,
	store itemStorage,
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
	}
}

func (r *repository) CreateItem(ctx context.Context, userID, shareID string, contents models.ItemContents) (*models.Item, error) {
	if contents.Alias != nil {
		if err := validation.ValidateAliasParts(contents.Alias.Prefix, contents.Alias.Suffix); err != nil {
			return nil, err
		}
	}

	plaintext, err := json.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item contents: %w", err)
	}

	itemKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item key: %w", err)
	}
	defer itemKey.Clear()

	var encryptedContent []byte
	err = r.provider.WithKeyContext(itemKey, func(c *crypto.Context) error {
		encryptedContent, err = c.Encrypt(plaintext, crypto.TagItemContent)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt item contents: %w", err)
	}

	shareKey, err := r.keys.GetLatestKeyForShare(ctx, userID, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share key: %w", err)
	}

	// Item-ключ уходит на сервер обёрнутым share-ключом последней rotation
	wrappedKey, err := r.wrapItemKey(itemKey, shareKey)
	if err != nil {
		return nil, err
	}

	resp, err := r.remote.CreateItem(ctx, shareID, api.CreateItemRequest{
		Content:     base64.StdEncoding.EncodeToString(encryptedContent),
		ItemKey:     base64.StdEncoding.EncodeToString(wrappedKey),
		KeyRotation: shareKey.Rotation,
	})
	if err != nil {
		return nil, fmt.Errorf("create item failed: %w", err)
	}

	// Локально item-ключ хранится под user-ключом: чтение из кэша
	// не должно требовать share-ключей.
	localKey, err := r.rewrapForCache(itemKey)
	if err != nil {
		return nil, err
	}

	entity := &storage.ItemEntity{
		ID:           resp.ItemID,
		ShareID:      shareID,
		Content:      encryptedContent,
		EncryptedKey: localKey,
		Revision:     resp.Revision,
		KeyRotation:  shareKey.Rotation,
		State:        int(models.ItemStateActive),
		CreatedAt:    time.Unix(resp.CreateTime, 0),
		ModifiedAt:   time.Unix(resp.ModifyTime, 0),
	}
	if err := r.store.UpsertItems(ctx, []*storage.ItemEntity{entity}); err != nil {
		return nil, fmt.Errorf("failed to store item: %w", err)
	}

	r.logger.Info("created item", "share_id", shareID, "item_id", resp.ItemID)

	return entityToModel(entity), nil
}

func (r *repository) UpdateItem(ctx context.Context, userID, shareID, itemID string, contents models.ItemContents) (*models.Item, error) {
	entity, err := r.store.GetItem(ctx, shareID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to read item: %w", err)
	}

	plaintext, err := json.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item contents: %w", err)
	}

	itemKey, keyRotation, err := r.itemKeyForUpdate(ctx, userID, shareID, entity)
	if err != nil {
		return nil, err
	}
	defer itemKey.Clear()

	var encryptedContent []byte
	err = r.provider.WithKeyContext(itemKey, func(c *crypto.Context) error {
		encryptedContent, err = c.Encrypt(plaintext, crypto.TagItemContent)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt item contents: %w", err)
	}

	resp, err := r.remote.UpdateItem(ctx, shareID, itemID, api.UpdateItemRequest{
		Content:      base64.StdEncoding.EncodeToString(encryptedContent),
		KeyRotation:  keyRotation,
		LastRevision: entity.Revision,
	})
	if err != nil {
		return nil, fmt.Errorf("update item failed: %w", err)
	}

	localKey, err := r.rewrapForCache(itemKey)
	if err != nil {
		return nil, err
	}

	entity.Content = encryptedContent
	entity.EncryptedKey = localKey
	entity.Revision = resp.Revision
	entity.KeyRotation = keyRotation
	entity.ModifiedAt = time.Unix(resp.ModifyTime, 0)

	if err := r.store.UpsertItems(ctx, []*storage.ItemEntity{entity}); err != nil {
		return nil, fmt.Errorf("failed to store item: %w", err)
	}

	r.logger.Info("updated item", "share_id", shareID, "item_id", itemID, "revision", resp.Revision)

	return entityToModel(entity), nil
}

// itemKeyForUpdate возвращает ключ для перешифровки контента.
// Существующий item-ключ переиспользуется; item без ключа получает
// новый, обёрнутый share-ключом последней rotation.
func (r *repository) itemKeyForUpdate(ctx context.Context, userID, shareID string, entity *storage.ItemEntity) (*crypto.EncryptionKey, int64, error) {
	if entity.EncryptedKey != nil {
		var raw []byte
		err := r.provider.WithContext(func(c *crypto.Context) error {
			var err error
			raw, err = c.Decrypt(entity.EncryptedKey, crypto.TagItemKey)
			return err
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to unwrap item key: %w", err)
		}
		return crypto.NewEncryptionKey(raw), entity.KeyRotation, nil
	}

	itemKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate item key: %w", err)
	}
	shareKey, err := r.keys.GetLatestKeyForShare(ctx, userID, shareID)
	if err != nil {
		itemKey.Clear()
		return nil, 0, fmt.Errorf("failed to load share key: %w", err)
	}
	return itemKey, shareKey.Rotation, nil
}

func (r *repository) RefreshItems(ctx context.Context, userID, shareID string) (int, error) {
	return r.refreshItems(ctx, userID, shareID, nil)
}

func (r *repository) RefreshItemsAndObserveProgress(ctx context.Context, userID, shareID string) <-chan ProgressUpdate {
	ch := make(chan ProgressUpdate, 1)
	go func() {
		defer close(ch)
		_, err := r.refreshItems(ctx, userID, shareID, func(p Progress) {
			select {
			case ch <- ProgressUpdate{Progress: p}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			select {
			case ch <- ProgressUpdate{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// refreshItems постранично выкачивает items share, перешифровывает
// item-ключи под user-ключ и сохраняет страницы по мере прихода.
// Items, пропавшие на сервере, удаляются из кэша после полного прохода.
func (r *repository) refreshItems(ctx context.Context, userID, shareID string, onProgress func(Progress)) (int, error) {
	seen := make(map[string]struct{})
	pageToken := ""
	current := 0
	total := 0

	for {
		page, err := r.remote.GetItemsPage(ctx, shareID, pageToken)
		if err != nil {
			return 0, fmt.Errorf("get items page failed: %w", err)
		}
		total = page.Total

		entities := make([]*storage.ItemEntity, 0, len(page.Items))
		for i := range page.Items {
			entity, err := r.entityFromResponse(ctx, userID, shareID, &page.Items[i])
			if err != nil {
				return 0, err
			}
			entities = append(entities, entity)
			seen[entity.ID] = struct{}{}
		}

		if len(entities) > 0 {
			if err := r.store.UpsertItems(ctx, entities); err != nil {
				return 0, fmt.Errorf("failed to store items page: %w", err)
			}
		}

		current += len(page.Items)
		if onProgress != nil {
			onProgress(Progress{Current: current, Total: total})
		}

		if page.LastToken == "" {
			break
		}
		pageToken = page.LastToken

		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}

	// Зачистка пропавших на сервере items идёт одной транзакцией
	err := r.store.InTransaction(ctx, func(ctx context.Context) error {
		cached, err := r.store.ListItems(ctx, shareID)
		if err != nil {
			return fmt.Errorf("failed to list cached items: %w", err)
		}
		for _, e := range cached {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			if err := r.store.DeleteItem(ctx, shareID, e.ID); err != nil && !errors.Is(err, storage.ErrItemNotFound) {
				return fmt.Errorf("failed to drop stale item %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("refreshed items", "share_id", shareID, "count", current)

	return current, nil
}

// entityFromResponse переводит серверный item в строку кэша.
// Item-ключ разворачивается share-ключом своей rotation и заворачивается
// обратно user-ключом устройства.
func (r *repository) entityFromResponse(ctx context.Context, userID, shareID string, resp *api.ItemResponse) (*storage.ItemEntity, error) {
	content, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode item content: %w", err)
	}

	var localKey []byte
	if resp.ItemKey != "" {
		wrapped, err := base64.StdEncoding.DecodeString(resp.ItemKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode item key: %w", err)
		}

		shareKey, err := r.keys.GetForShareAndRotation(ctx, userID, shareID, resp.KeyRotation)
		if err != nil {
			return nil, fmt.Errorf("failed to load share key rotation %d: %w", resp.KeyRotation, err)
		}

		err = r.provider.WithContext(func(c *crypto.Context) error {
			rawShareKey, err := c.Decrypt(shareKey.EncryptedKey, crypto.TagNone)
			if err != nil {
				return fmt.Errorf("failed to unwrap share key: %w", err)
			}
			sk := crypto.NewEncryptionKey(rawShareKey)
			defer sk.Clear()

			var rawItemKey []byte
			err = r.provider.WithKeyContext(sk, func(skc *crypto.Context) error {
				rawItemKey, err = skc.Decrypt(wrapped, crypto.TagItemKey)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to unwrap item key: %w", err)
			}
			ik := crypto.NewEncryptionKey(rawItemKey)
			defer ik.Clear()

			localKey, err = c.Encrypt(ik.Bytes(), crypto.TagItemKey)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	return &storage.ItemEntity{
		ID:           resp.ItemID,
		ShareID:      shareID,
		Content:      content,
		EncryptedKey: localKey,
		Revision:     resp.Revision,
		KeyRotation:  resp.KeyRotation,
		State:        resp.State,
		CreatedAt:    time.Unix(resp.CreateTime, 0),
		ModifiedAt:   time.Unix(resp.ModifyTime, 0),
	}, nil
}

func (r *repository) GetByID(ctx context.Context, shareID, itemID string) (*models.Item, error) {
	entity, err := r.store.GetItem(ctx, shareID, itemID)
	if err != nil {
		return nil, err
	}
	return entityToModel(entity), nil
}

func (r *repository) ListItems(ctx context.Context, shareID string) ([]*models.Item, error) {
	entities, err := r.store.ListItems(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make([]*models.Item, 0, len(entities))
	for _, e := range entities {
		items = append(items, entityToModel(e))
	}
	return items, nil
}

func (r *repository) DecryptContents(ctx context.Context, item *models.Item) (*models.ItemContents, error) {
	if item.EncryptedKey == nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, ErrItemKeyMissing)
	}

	var plaintext []byte
	err := r.provider.WithContext(func(c *crypto.Context) error {
		raw, err := c.Decrypt(item.EncryptedKey, crypto.TagItemKey)
		if err != nil {
			return fmt.Errorf("failed to unwrap item key: %w", err)
		}
		ik := crypto.NewEncryptionKey(raw)
		defer ik.Clear()

		return r.provider.WithKeyContext(ik, func(ic *crypto.Context) error {
			plaintext, err = ic.Decrypt(item.Content, crypto.TagItemContent)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt item contents: %w", err)
	}

	var contents models.ItemContents
	if err := json.Unmarshal(plaintext, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse item contents: %w", err)
	}
	return &contents, nil
}

func (r *repository) TrashItem(ctx context.Context, shareID, itemID string) error {
	return r.setState(ctx, shareID, itemID, models.ItemStateTrashed)
}

func (r *repository) UntrashItem(ctx context.Context, shareID, itemID string) error {
	return r.setState(ctx, shareID, itemID, models.ItemStateActive)
}

func (r *repository) setState(ctx context.Context, shareID, itemID string, state models.ItemState) error {
	// Сервер первым: локальное состояние не должно опережать серверное
	if _, err := r.remote.UpdateItemState(ctx, shareID, itemID, api.UpdateItemStateRequest{State: int(state)}); err != nil {
		return fmt.Errorf("update item state failed: %w", err)
	}
	if err := r.store.UpdateItemState(ctx, shareID, itemID, int(state)); err != nil {
		return fmt.Errorf("failed to update cached item state: %w", err)
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, shareID, itemID string) error {
	if err := r.remote.DeleteItem(ctx, shareID, itemID); err != nil {
		return fmt.Errorf("delete item failed: %w", err)
	}
	if err := r.store.DeleteItem(ctx, shareID, itemID); err != nil && !errors.Is(err, storage.ErrItemNotFound) {
		return fmt.Errorf("failed to delete cached item: %w", err)
	}
	return nil
}

// wrapItemKey шифрует item-ключ share-ключом для отправки на сервер
func (r *repository) wrapItemKey(itemKey *crypto.EncryptionKey, shareKey *models.ShareKey) ([]byte, error) {
	var wrapped []byte
	err := r.provider.WithContext(func(c *crypto.Context) error {
		rawShareKey, err := c.Decrypt(shareKey.EncryptedKey, crypto.TagNone)
		if err != nil {
			return fmt.Errorf("failed to unwrap share key: %w", err)
		}
		sk := crypto.NewEncryptionKey(rawShareKey)
		defer sk.Clear()

		return r.provider.WithKeyContext(sk, func(skc *crypto.Context) error {
			wrapped, err = skc.Encrypt(itemKey.Bytes(), crypto.TagItemKey)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wrap item key: %w", err)
	}
	return wrapped, nil
}

// rewrapForCache шифрует item-ключ user-ключом для локального хранения
func (r *repository) rewrapForCache(itemKey *crypto.EncryptionKey) ([]byte, error) {
	var wrapped []byte
	err := r.provider.WithContext(func(c *crypto.Context) error {
		var err error
		wrapped, err = c.Encrypt(itemKey.Bytes(), crypto.TagItemKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wrap item key for cache: %w", err)
	}
	return wrapped, nil
}

func entityToModel(e *storage.ItemEntity) *models.Item {
	return &models.Item{
		ID:           e.ID,
		ShareID:      e.ShareID,
		Content:      e.Content,
		EncryptedKey: e.EncryptedKey,
		Revision:     e.Revision,
		KeyRotation:  e.KeyRotation,
		State:        models.ItemState(e.State),
		CreatedAt:    e.CreatedAt,
		ModifiedAt:   e.ModifiedAt,
	}
}
