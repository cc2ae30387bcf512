package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
)

// SaveShareKeys stores share keys.
// FK на shares гарантирует, что share уже сохранён: попытка записать ключ
// для отсутствующего share - ошибка, а не тихая запись сироты.
func (s *Storage) SaveShareKeys(ctx context.Context, keys []*storage.ShareKeyEntity) error {
	query := `
		INSERT INTO share_keys (share_id, user_id, rotation, encrypted_key, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(share_id, rotation) DO UPDATE SET
			encrypted_key = excluded.encrypted_key
	`

	for _, key := range keys {
		_, err := s.q(ctx).ExecContext(ctx, query,
			key.ShareID,
			key.UserID,
			key.Rotation,
			key.EncryptedKey,
			key.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to save share key [share_id=%s rotation=%d]: %w",
				key.ShareID, key.Rotation, err)
		}
	}

	return nil
}

// GetLatestShareKey returns the key with the maximum rotation for the share
func (s *Storage) GetLatestShareKey(ctx context.Context, shareID string) (*storage.ShareKeyEntity, error) {
	query := `
		SELECT share_id, user_id, rotation, encrypted_key, created_at
		FROM share_keys
		WHERE share_id = ?
		ORDER BY rotation DESC
		LIMIT 1
	`

	key, err := scanShareKey(s.q(ctx).QueryRowContext(ctx, query, shareID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrShareKeyNotFound
		}
		return nil, fmt.Errorf("failed to get latest share key: %w", err)
	}

	return key, nil
}

// GetShareKey returns the key for a specific (share, rotation) pair
func (s *Storage) GetShareKey(ctx context.Context, userID, shareID string, rotation int64) (*storage.ShareKeyEntity, error) {
	query := `
		SELECT share_id, user_id, rotation, encrypted_key, created_at
		FROM share_keys
		WHERE share_id = ? AND user_id = ? AND rotation = ?
	`

	key, err := scanShareKey(s.q(ctx).QueryRowContext(ctx, query, shareID, userID, rotation))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrShareKeyNotFound
		}
		return nil, fmt.Errorf("failed to get share key: %w", err)
	}

	return key, nil
}

// ListShareKeys returns all keys of the share ordered by rotation
func (s *Storage) ListShareKeys(ctx context.Context, shareID string) ([]*storage.ShareKeyEntity, error) {
	query := `
		SELECT share_id, user_id, rotation, encrypted_key, created_at
		FROM share_keys
		WHERE share_id = ?
		ORDER BY rotation
	`

	rows, err := s.q(ctx).QueryContext(ctx, query, shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share keys: %w", err)
	}
	defer rows.Close()

	var keys []*storage.ShareKeyEntity
	for rows.Next() {
		key, err := scanShareKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return keys, nil
}

func scanShareKey(row scanner) (*storage.ShareKeyEntity, error) {
	key := &storage.ShareKeyEntity{}
	var createdAt int64

	err := row.Scan(
		&key.ShareID,
		&key.UserID,
		&key.Rotation,
		&key.EncryptedKey,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	key.CreatedAt = time.Unix(createdAt, 0)

	return key, nil
}
