package syncstatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/passvault/internal/models"
)

func receiveStatus(t *testing.T, ch <-chan models.SyncStatus) models.SyncStatus {
	t.Helper()
	select {
	case status := <-ch:
		return status
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status")
		return nil
	}
}

func TestMode(t *testing.T) {
	repo := NewRepository()
	assert.Equal(t, models.SyncModeBackground, repo.Mode())

	repo.SetMode(models.SyncModeShownToUser)
	assert.Equal(t, models.SyncModeShownToUser, repo.Mode())
}

func TestObserve_ReceivesEmitted(t *testing.T) {
	repo := NewRepository()
	ch, cancel := repo.Observe()
	defer cancel()

	repo.Emit(models.SyncStatusSyncing{ShareID: "s1", Current: 1, Total: 5})

	status := receiveStatus(t, ch)
	syncing, ok := status.(models.SyncStatusSyncing)
	require.True(t, ok)
	assert.Equal(t, "s1", syncing.ShareID)
	assert.Equal(t, 1, syncing.Current)
}

func TestObserve_ReplaysLatestToLateSubscriber(t *testing.T) {
	repo := NewRepository()

	repo.Emit(models.SyncStatusSyncing{ShareID: "s1", Current: 3, Total: 5})
	repo.Emit(models.SyncStatusCompleted{HasItems: true})

	// Опоздавший подписчик получает последний статус, не историю
	ch, cancel := repo.Observe()
	defer cancel()

	status := receiveStatus(t, ch)
	completed, ok := status.(models.SyncStatusCompleted)
	require.True(t, ok)
	assert.True(t, completed.HasItems)
}

func TestEmit_SlowSubscriberSeesLatest(t *testing.T) {
	repo := NewRepository()
	ch, cancel := repo.Observe()
	defer cancel()

	// Подписчик не читает: промежуточные статусы вытесняются
	repo.Emit(models.SyncStatusSyncing{ShareID: "s1", Current: 1, Total: 3})
	repo.Emit(models.SyncStatusSyncing{ShareID: "s1", Current: 2, Total: 3})
	repo.Emit(models.SyncStatusCompleted{HasItems: true})

	status := receiveStatus(t, ch)
	_, ok := status.(models.SyncStatusCompleted)
	assert.True(t, ok)
}

func TestObserve_CancelClosesChannel(t *testing.T) {
	repo := NewRepository()
	ch, cancel := repo.Observe()

	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Emit после отписки не паникует
	repo.Emit(models.SyncStatusError{})

	// Повторная отмена безопасна
	cancel()
}

func TestObserve_MultipleSubscribers(t *testing.T) {
	repo := NewRepository()
	ch1, cancel1 := repo.Observe()
	defer cancel1()
	ch2, cancel2 := repo.Observe()
	defer cancel2()

	repo.Emit(models.SyncStatusCompleted{HasItems: false})

	_, ok := receiveStatus(t, ch1).(models.SyncStatusCompleted)
	assert.True(t, ok)
	_, ok = receiveStatus(t, ch2).(models.SyncStatusCompleted)
	assert.True(t, ok)
}
