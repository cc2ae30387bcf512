package models

// SyncMode определяет, должны ли эмиссии прогресса показываться пользователю
type SyncMode int

const (
	SyncModeBackground SyncMode = iota
	SyncModeShownToUser
)

// SyncStatus — агрегатное состояние фоновой синхронизации items по многим shares.
// Сбрасывается в начале каждого цикла, обновляется конкурентными задачами,
// терминально после завершения всех задач.
type SyncStatus interface {
	syncStatus()
}

// SyncStatusSyncing синхронизация идёт: прогресс по конкретному share
type SyncStatusSyncing struct {
	ShareID string
	Current int
	Total   int
}

// SyncStatusError хотя бы одна задача завершилась неустранимой ошибкой
type SyncStatusError struct{}

// SyncStatusCompleted все задачи завершились успешно.
// HasItems — хотя бы один share вернул хотя бы один item.
type SyncStatusCompleted struct {
	HasItems bool
}

func (SyncStatusSyncing) syncStatus()   {}
func (SyncStatusError) syncStatus()     {}
func (SyncStatusCompleted) syncStatus() {}
