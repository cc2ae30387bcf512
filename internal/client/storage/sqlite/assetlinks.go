package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
)

// ReplaceAssetLinks atomically replaces all stored host/package associations
func (s *Storage) ReplaceAssetLinks(ctx context.Context, links []*storage.AssetLinkEntity) error {
	return s.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM asset_links`); err != nil {
			return fmt.Errorf("failed to clear asset links: %w", err)
		}

		query := `INSERT INTO asset_links (host, package_name, created_at) VALUES (?, ?, ?)`
		for _, link := range links {
			if _, err := s.q(ctx).ExecContext(ctx, query, link.Host, link.PackageName, link.CreatedAt.Unix()); err != nil {
				return fmt.Errorf("failed to insert asset link [host=%s]: %w", link.Host, err)
			}
		}

		return nil
	})
}

// GetAssetLinks returns associations for a host
func (s *Storage) GetAssetLinks(ctx context.Context, host string) ([]*storage.AssetLinkEntity, error) {
	query := `SELECT host, package_name, created_at FROM asset_links WHERE host = ?`

	rows, err := s.q(ctx).QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset links: %w", err)
	}
	defer rows.Close()

	var links []*storage.AssetLinkEntity
	for rows.Next() {
		link := &storage.AssetLinkEntity{}
		var createdAt int64
		if err := rows.Scan(&link.Host, &link.PackageName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset link: %w", err)
		}
		link.CreatedAt = time.Unix(createdAt, 0)
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return links, nil
}
