package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/iudanet/passvault/internal/client/items"
	"github.com/iudanet/passvault/internal/client/syncstatus"
	"github.com/iudanet/passvault/internal/models"
)

// ErrSyncFailed возвращается когда хотя бы один share не досинхронизировался.
// Ошибка устранимая: вызывающий повторяет весь батч с backoff.
var ErrSyncFailed = errors.New("item sync failed")

type itemRefresher interface {
	RefreshItemsAndObserveProgress(ctx context.Context, userID, shareID string) <-chan items.ProgressUpdate
}

type shareLister interface {
	RefreshShares(ctx context.Context, userID string) ([]*models.Share, error)
}

// Worker выполняет пакетную синхронизацию items по множеству shares
// с ограниченным параллелизмом и агрегатным статусом.
type Worker struct {
	items       itemRefresher
	shares      shareLister
	status      syncstatus.Repository
	logger      *slog.Logger
	parallelism int64
}

// Option настраивает Worker
type Option func(*Worker)

// WithParallelism задает число одновременных per-share синхронизаций.
// По умолчанию max(1, NumCPU/2).
func WithParallelism(n int64) Option {
	return func(w *Worker) {
		if n > 0 {
			w.parallelism = n
		}
	}
}

// NewWorker создает воркер синхронизации
func NewWorker(itemsRepo itemRefresher, sharesRepo shareLister, status syncstatus.Repository, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		items:       itemsRepo,
		shares:      sharesRepo,
		status:      status,
		logger:      logger,
		parallelism: defaultParallelism(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func defaultParallelism() int64 {
	n := int64(runtime.NumCPU() / 2)
	if n < 1 {
		n = 1
	}
	return n
}

// FetchItems синхронизирует items перечисленных shares.
// Задачи независимы: провал одного share не прерывает остальные, но
// помечает весь батч ошибкой. Отмена контекста останавливает fan-out;
// уже завершённые shares остаются с данными.
func (w *Worker) FetchItems(ctx context.Context, userID string, shareIDs []string) error {
	// Новый цикл сбрасывает статус: опоздавший подписчик не должен
	// получить терминальный статус предыдущего батча
	w.status.Emit(models.SyncStatusSyncing{})

	sem := semaphore.NewWeighted(w.parallelism)

	var (
		wg       sync.WaitGroup
		hasItems atomic.Bool
		failed   atomic.Bool
	)

	for _, shareID := range shareIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Контекст отменён: дожидаемся уже запущенных задач
			failed.Store(true)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := w.fetchShare(ctx, userID, shareID, &hasItems); err != nil {
				w.logger.Error("share sync failed", "share_id", shareID, "error", err)
				failed.Store(true)
			}
		}()
	}

	wg.Wait()

	if failed.Load() {
		w.status.Emit(models.SyncStatusError{})
		return ErrSyncFailed
	}

	w.status.Emit(models.SyncStatusCompleted{HasItems: hasItems.Load()})
	return nil
}

// fetchShare синхронизирует один share, транслируя прогресс в статусы
func (w *Worker) fetchShare(ctx context.Context, userID, shareID string, hasItems *atomic.Bool) error {
	for update := range w.items.RefreshItemsAndObserveProgress(ctx, userID, shareID) {
		if update.Err != nil {
			return update.Err
		}
		if update.Progress.Current > 0 {
			hasItems.Store(true)
		}
		w.status.Emit(models.SyncStatusSyncing{
			ShareID: shareID,
			Current: update.Progress.Current,
			Total:   update.Progress.Total,
		})
	}
	return ctx.Err()
}

// RefreshAll обновляет список shares с сервера и синхронизирует items
// всех полученных shares
func (w *Worker) RefreshAll(ctx context.Context, userID string) error {
	w.status.Emit(models.SyncStatusSyncing{})

	shares, err := w.shares.RefreshShares(ctx, userID)
	if err != nil {
		w.status.Emit(models.SyncStatusError{})
		return fmt.Errorf("failed to refresh shares: %w", err)
	}

	shareIDs := make([]string, 0, len(shares))
	for _, s := range shares {
		shareIDs = append(shareIDs, s.ID)
	}
	return w.FetchItems(ctx, userID, shareIDs)
}
