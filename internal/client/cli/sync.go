package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/passvault/internal/client/syncer"
	"github.com/iudanet/passvault/internal/models"
)

func (c *Cli) runSync(ctx context.Context) error {
	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	fmt.Println("Synchronizing...")

	c.status.SetMode(models.SyncModeShownToUser)

	statusCh, unsubscribe := c.status.Observe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for status := range statusCh {
			if c.status.Mode() != models.SyncModeShownToUser {
				continue
			}
			switch s := status.(type) {
			case models.SyncStatusSyncing:
				fmt.Printf("  share %s: %d/%d items\r", s.ShareID, s.Current, s.Total)
			case models.SyncStatusError:
				fmt.Println("\n  sync attempt failed")
			case models.SyncStatusCompleted:
				fmt.Println()
			}
		}
	}()

	// Провал батча устраним: повторяем с fibonacci backoff
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.syncWorker.RefreshAll(ctx, c.userID); err != nil {
			if errors.Is(err, syncer.ErrSyncFailed) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	unsubscribe()
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	// Ассоциации autofill обновляются best-effort: их отсутствие
	// не делает синхронизацию неудачной
	if err := c.assets.Refresh(ctx); err != nil {
		c.logger.Warn("asset links refresh failed", "error", err)
	}

	fmt.Println("✓ Sync complete.")
	return nil
}
