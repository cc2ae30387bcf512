package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
)

// UpsertShares stores or updates share rows
func (s *Storage) UpsertShares(ctx context.Context, shares []*storage.ShareEntity) error {
	query := `
		INSERT INTO shares (
			id, user_id, inviter_email, content_signature_email,
			signing_key, content, content_reencrypted,
			content_rotation, permission, is_owner, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			inviter_email = excluded.inviter_email,
			content_signature_email = excluded.content_signature_email,
			signing_key = excluded.signing_key,
			content = excluded.content,
			content_reencrypted = excluded.content_reencrypted,
			content_rotation = excluded.content_rotation,
			permission = excluded.permission,
			is_owner = excluded.is_owner
	`

	for _, share := range shares {
		_, err := s.q(ctx).ExecContext(ctx, query,
			share.ID,
			share.UserID,
			share.InviterEmail,
			share.ContentSignatureEmail,
			share.SigningKey,
			share.Content,
			share.ContentReencrypted,
			share.ContentRotation,
			share.Permission,
			boolToInt(share.IsOwner),
			share.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert share %s: %w", share.ID, err)
		}
	}

	return nil
}

// GetShare retrieves a share by ID
func (s *Storage) GetShare(ctx context.Context, userID, shareID string) (*storage.ShareEntity, error) {
	query := selectShareQuery + ` WHERE id = ? AND user_id = ?`

	row := s.q(ctx).QueryRowContext(ctx, query, shareID, userID)
	share, err := scanShare(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}

	return share, nil
}

// ListShares returns all shares for the user
func (s *Storage) ListShares(ctx context.Context, userID string) ([]*storage.ShareEntity, error) {
	query := selectShareQuery + ` WHERE user_id = ? ORDER BY created_at`

	rows, err := s.q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	var shares []*storage.ShareEntity
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return shares, nil
}

// DeleteShare removes a share row; share keys and items cascade
func (s *Storage) DeleteShare(ctx context.Context, shareID string) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM shares WHERE id = ?`, shareID)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrShareNotFound
	}

	return nil
}

// SelectShare updates the single-row selected-share pointer for the user
func (s *Storage) SelectShare(ctx context.Context, userID, shareID string) error {
	query := `
		INSERT INTO selected_shares (user_id, share_id) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET share_id = excluded.share_id
	`

	if _, err := s.q(ctx).ExecContext(ctx, query, userID, shareID); err != nil {
		return fmt.Errorf("failed to select share: %w", err)
	}

	return nil
}

// GetSelectedShare returns the user's currently selected share
func (s *Storage) GetSelectedShare(ctx context.Context, userID string) (*storage.ShareEntity, error) {
	query := selectShareQuery + `
		JOIN selected_shares ss ON ss.share_id = shares.id
		WHERE ss.user_id = ?`

	row := s.q(ctx).QueryRowContext(ctx, query, userID)
	share, err := scanShare(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNoSelectedShare
		}
		return nil, fmt.Errorf("failed to get selected share: %w", err)
	}

	return share, nil
}

const selectShareQuery = `
	SELECT shares.id, shares.user_id, shares.inviter_email, shares.content_signature_email,
	       shares.signing_key, shares.content, shares.content_reencrypted,
	       shares.content_rotation, shares.permission, shares.is_owner, shares.created_at
	FROM shares`

// scanner покрывает и *sql.Row, и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanShare(row scanner) (*storage.ShareEntity, error) {
	share := &storage.ShareEntity{}
	var isOwner int
	var createdAt int64

	err := row.Scan(
		&share.ID,
		&share.UserID,
		&share.InviterEmail,
		&share.ContentSignatureEmail,
		&share.SigningKey,
		&share.Content,
		&share.ContentReencrypted,
		&share.ContentRotation,
		&share.Permission,
		&isOwner,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	share.IsOwner = isOwner != 0
	share.CreatedAt = time.Unix(createdAt, 0)

	return share, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
