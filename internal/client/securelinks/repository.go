package securelinks

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/passvault/internal/client/sharekeys"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
	"github.com/iudanet/passvault/pkg/api"
)

// ErrItemKeyMissing возвращается при попытке создать secure link для item
// без item-ключа. Такие items созданы до поддержки secure links; ошибка
// возникает до любого похода в сеть.
var ErrItemKeyMissing = errors.New("item has no item key, secure link cannot be created")

//go:generate moq -out repository_mock.go . Repository

// Repository управляет secure links: одноразовыми capability-ссылками
// на items с двухслойным шифрованием ключей.
type Repository interface {
	// CreateSecureLink создает ссылку на item. Item-ключ шифруется свежим
	// link-ключом, link-ключ - share-ключом последней rotation; сервер
	// не видит открытого ключевого материала. Итоговый URL собирается
	// как серверная часть + "#" + base64url link-ключа: фрагмент на
	// сервер не уходит, его URL бесполезен сам по себе.
	CreateSecureLink(ctx context.Context, userID, shareID, itemID string, opts models.SecureLinkOptions) (*models.SecureLink, error)

	// GetSecureLinks возвращает все ссылки пользователя одним запросом.
	// Ссылки, чей share-ключ не удалось получить, молча выпадают из
	// результата, не валя весь список.
	GetSecureLinks(ctx context.Context, userID string) ([]*models.SecureLink, error)
}

type remoteAPI interface {
	CreateSecureLink(ctx context.Context, shareID, itemID string, req api.CreateSecureLinkRequest) (*api.CreateSecureLinkResponse, error)
	GetAllSecureLinks(ctx context.Context) ([]api.SecureLinkResponse, error)
}

type itemReader interface {
	GetItem(ctx context.Context, shareID, itemID string) (*storage.ItemEntity, error)
}

type repository struct {
	remote   remoteAPI
	items    itemReader
	keys     sharekeys.Repository
	provider *crypto.Provider
	logger   *slog.Logger
}

// NewRepository создает репозиторий secure links
func NewRepository(
	remote remoteAPI,
	items itemReader,
	keys sharekeys.Repository,
	provider *crypto.Provider,
	logger *slog.Logger,
) Repository {
	return &repository{
		remote:   remote,
		items:    items,
		keys:     keys,
		provider: provider,
		logger:   logger,
	}
}

func (r *repository) CreateSecureLink(ctx context.Context, userID, shareID, itemID string, opts models.SecureLinkOptions) (*models.SecureLink, error) {
	item, err := r.items.GetItem(ctx, shareID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to read item: %w", err)
	}
	if item.EncryptedKey == nil {
		return nil, ErrItemKeyMissing
	}

	linkKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate link key: %w", err)
	}
	defer linkKey.Clear()

	shareKey, err := r.keys.GetLatestKeyForShare(ctx, userID, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share key: %w", err)
	}

	var encryptedItemKey, encryptedLinkKey []byte
	err = r.provider.WithContext(func(c *crypto.Context) error {
		rawItemKey, err := c.Decrypt(item.EncryptedKey, crypto.TagItemKey)
		if err != nil {
			return fmt.Errorf("failed to unwrap item key: %w", err)
		}
		ik := crypto.NewEncryptionKey(rawItemKey)
		defer ik.Clear()

		// Первый слой: item-ключ под link-ключом
		err = r.provider.WithKeyContext(linkKey, func(lc *crypto.Context) error {
			encryptedItemKey, err = lc.Encrypt(ik.Bytes(), crypto.TagItemKey)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to encrypt item key: %w", err)
		}

		rawShareKey, err := c.Decrypt(shareKey.EncryptedKey, crypto.TagNone)
		if err != nil {
			return fmt.Errorf("failed to unwrap share key: %w", err)
		}
		sk := crypto.NewEncryptionKey(rawShareKey)
		defer sk.Clear()

		// Второй слой: link-ключ под share-ключом последней rotation
		err = r.provider.WithKeyContext(sk, func(sc *crypto.Context) error {
			encryptedLinkKey, err = sc.Encrypt(linkKey.Bytes(), crypto.TagLinkKey)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to encrypt link key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := r.remote.CreateSecureLink(ctx, shareID, itemID, api.CreateSecureLinkRequest{
		EncryptedItemKey:        base64.StdEncoding.EncodeToString(encryptedItemKey),
		EncryptedLinkKey:        base64.StdEncoding.EncodeToString(encryptedLinkKey),
		Revision:                item.Revision,
		ExpirationTime:          int64(opts.ExpirationTime.Seconds()),
		MaxReadCount:            opts.MaxReadCount,
		LinkKeyShareKeyRotation: shareKey.Rotation,
	})
	if err != nil {
		return nil, fmt.Errorf("create secure link failed: %w", err)
	}

	fullURL := assembleURL(resp.URL, linkKey.Bytes())

	r.logger.Info("created secure link", "share_id", shareID, "item_id", itemID)

	return &models.SecureLink{
		ShareID:      shareID,
		ItemID:       itemID,
		URL:          fullURL,
		Expiration:   time.Now().Add(opts.ExpirationTime),
		MaxReadCount: opts.MaxReadCount,
	}, nil
}

// keyRef - ключ дедупликации батча share-ключей
type keyRef struct {
	shareID  string
	rotation int64
}

func (r *repository) GetSecureLinks(ctx context.Context, userID string) ([]*models.SecureLink, error) {
	remote, err := r.remote.GetAllSecureLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("get secure links failed: %w", err)
	}

	// Батч ключей дедуплицируется по (share, rotation) и резолвится
	// конкурентно; недоступный ключ - это отсутствие в map, не ошибка.
	refs := make(map[keyRef]struct{}, len(remote))
	for i := range remote {
		refs[keyRef{remote[i].ShareID, remote[i].LinkKeyShareKeyRotation}] = struct{}{}
	}

	var mu sync.Mutex
	resolved := make(map[keyRef]*crypto.EncryptionKey, len(refs))
	defer func() {
		for _, k := range resolved {
			k.Clear()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for ref := range refs {
		g.Go(func() error {
			shareKey, err := r.keys.GetForShareAndRotation(gctx, userID, ref.shareID, ref.rotation)
			if err != nil {
				r.logger.Warn("failed to resolve share key for secure link",
					"share_id", ref.shareID, "rotation", ref.rotation, "error", err)
				return nil
			}

			var raw []byte
			err = r.provider.WithContext(func(c *crypto.Context) error {
				raw, err = c.Decrypt(shareKey.EncryptedKey, crypto.TagNone)
				return err
			})
			if err != nil {
				r.logger.Warn("failed to unwrap share key for secure link",
					"share_id", ref.shareID, "rotation", ref.rotation, "error", err)
				return nil
			}

			mu.Lock()
			resolved[ref] = crypto.NewEncryptionKey(raw)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	links := make([]*models.SecureLink, 0, len(remote))
	for i := range remote {
		link, ok := r.assembleLink(&remote[i], resolved)
		if !ok {
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

// assembleLink расшифровывает link-ключ и восстанавливает полный URL.
// Возвращает false если ключевой материал недоступен или битый.
func (r *repository) assembleLink(resp *api.SecureLinkResponse, keys map[keyRef]*crypto.EncryptionKey) (*models.SecureLink, bool) {
	shareKey, ok := keys[keyRef{resp.ShareID, resp.LinkKeyShareKeyRotation}]
	if !ok {
		return nil, false
	}

	encryptedLinkKey, err := base64.StdEncoding.DecodeString(resp.EncryptedLinkKey)
	if err != nil {
		r.logger.Warn("malformed encrypted link key", "link_id", resp.LinkID)
		return nil, false
	}

	var rawLinkKey []byte
	err = r.provider.WithKeyContext(shareKey, func(c *crypto.Context) error {
		rawLinkKey, err = c.Decrypt(encryptedLinkKey, crypto.TagLinkKey)
		return err
	})
	if err != nil {
		r.logger.Warn("failed to decrypt link key", "link_id", resp.LinkID, "error", err)
		return nil, false
	}
	defer func() {
		for i := range rawLinkKey {
			rawLinkKey[i] = 0
		}
	}()

	return &models.SecureLink{
		ID:           resp.LinkID,
		ShareID:      resp.ShareID,
		ItemID:       resp.ItemID,
		URL:          assembleURL(resp.LinkURL, rawLinkKey),
		Expiration:   time.Unix(resp.ExpirationTime, 0),
		MaxReadCount: resp.MaxReadCount,
		ReadCount:    resp.ReadCount,
	}, true
}

// assembleURL добавляет к серверной части URL фрагмент с link-ключом.
// Используется URL-safe алфавит без padding.
func assembleURL(serverURL string, rawLinkKey []byte) string {
	return serverURL + "#" + base64.RawURLEncoding.EncodeToString(rawLinkKey)
}
