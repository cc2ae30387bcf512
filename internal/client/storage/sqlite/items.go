package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
)

// UpsertItems stores or updates item rows
func (s *Storage) UpsertItems(ctx context.Context, items []*storage.ItemEntity) error {
	query := `
		INSERT INTO items (
			id, share_id, content, encrypted_key,
			revision, key_rotation, state, created_at, modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(share_id, id) DO UPDATE SET
			content = excluded.content,
			encrypted_key = excluded.encrypted_key,
			revision = excluded.revision,
			key_rotation = excluded.key_rotation,
			state = excluded.state,
			modified_at = excluded.modified_at
	`

	for _, item := range items {
		_, err := s.q(ctx).ExecContext(ctx, query,
			item.ID,
			item.ShareID,
			item.Content,
			item.EncryptedKey,
			item.Revision,
			item.KeyRotation,
			item.State,
			item.CreatedAt.Unix(),
			item.ModifiedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert item [share_id=%s item_id=%s]: %w",
				item.ShareID, item.ID, err)
		}
	}

	return nil
}

// GetItem retrieves an item by (share, item) pair
func (s *Storage) GetItem(ctx context.Context, shareID, itemID string) (*storage.ItemEntity, error) {
	query := selectItemQuery + ` WHERE share_id = ? AND id = ?`

	item, err := scanItem(s.q(ctx).QueryRowContext(ctx, query, shareID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListItems returns all items of the share
func (s *Storage) ListItems(ctx context.Context, shareID string) ([]*storage.ItemEntity, error) {
	query := selectItemQuery + ` WHERE share_id = ? ORDER BY created_at`

	rows, err := s.q(ctx).QueryContext(ctx, query, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*storage.ItemEntity
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

// UpdateItemState moves an item between active and trashed
func (s *Storage) UpdateItemState(ctx context.Context, shareID, itemID string, state int) error {
	query := `UPDATE items SET state = ?, modified_at = ? WHERE share_id = ? AND id = ?`

	res, err := s.q(ctx).ExecContext(ctx, query, state, time.Now().Unix(), shareID, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrItemNotFound
	}

	return nil
}

// DeleteItem removes an item row
func (s *Storage) DeleteItem(ctx context.Context, shareID, itemID string) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM items WHERE share_id = ? AND id = ?`, shareID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrItemNotFound
	}

	return nil
}

// CountItems returns the number of items cached for the share
func (s *Storage) CountItems(ctx context.Context, shareID string) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE share_id = ?`, shareID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

const selectItemQuery = `
	SELECT id, share_id, content, encrypted_key,
	       revision, key_rotation, state, created_at, modified_at
	FROM items`

func scanItem(row scanner) (*storage.ItemEntity, error) {
	item := &storage.ItemEntity{}
	var createdAt, modifiedAt int64

	err := row.Scan(
		&item.ID,
		&item.ShareID,
		&item.Content,
		&item.EncryptedKey,
		&item.Revision,
		&item.KeyRotation,
		&item.State,
		&createdAt,
		&modifiedAt,
	)
	if err != nil {
		return nil, err
	}

	item.CreatedAt = time.Unix(createdAt, 0)
	item.ModifiedAt = time.Unix(modifiedAt, 0)

	return item, nil
}
