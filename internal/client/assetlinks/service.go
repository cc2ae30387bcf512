package assetlinks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/pkg/api"
)

type remoteAPI interface {
	GetAssetLinks(ctx context.Context) ([]api.AssetLinkResponse, error)
}

// Service поддерживает локальную таблицу ассоциаций host -> package,
// чтобы подсказки autofill работали офлайн
type Service struct {
	remote remoteAPI
	store  storage.AssetLinkStorage
	logger *slog.Logger
}

// NewService создает сервис asset links
func NewService(remote remoteAPI, store storage.AssetLinkStorage, logger *slog.Logger) *Service {
	return &Service{
		remote: remote,
		store:  store,
		logger: logger,
	}
}

// Refresh атомарно заменяет кэш ассоциаций свежим серверным списком
func (s *Service) Refresh(ctx context.Context) error {
	remote, err := s.remote.GetAssetLinks(ctx)
	if err != nil {
		return fmt.Errorf("get asset links failed: %w", err)
	}

	entities := make([]*storage.AssetLinkEntity, 0, len(remote))
	now := time.Now()
	for _, l := range remote {
		entities = append(entities, &storage.AssetLinkEntity{
			Host:        l.Host,
			PackageName: l.PackageName,
			CreatedAt:   now,
		})
	}

	if err := s.store.ReplaceAssetLinks(ctx, entities); err != nil {
		return fmt.Errorf("failed to store asset links: %w", err)
	}

	s.logger.Debug("refreshed asset links", "count", len(entities))
	return nil
}

// PackagesForHost возвращает пакеты приложений, связанные с хостом
func (s *Service) PackagesForHost(ctx context.Context, host string) ([]string, error) {
	links, err := s.store.GetAssetLinks(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset links: %w", err)
	}
	packages := make([]string, 0, len(links))
	for _, l := range links {
		packages = append(packages, l.PackageName)
	}
	return packages, nil
}
