package storage

import (
	"context"
	"time"
)

// AssetLinkEntity связывает хост сайта с пакетом приложения для autofill.
// Сами эвристики сопоставления полей живут вне этого модуля; кэш лишь
// хранит ассоциации, чтобы подсказки работали офлайн.
type AssetLinkEntity struct {
	CreatedAt   time.Time
	Host        string
	PackageName string
}

// AssetLinkStorage defines interface for the asset_links table
type AssetLinkStorage interface {
	// ReplaceAssetLinks atomically replaces all stored associations
	ReplaceAssetLinks(ctx context.Context, links []*AssetLinkEntity) error

	// GetAssetLinks returns associations for a host
	GetAssetLinks(ctx context.Context, host string) ([]*AssetLinkEntity, error)
}
