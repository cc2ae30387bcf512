package syncstatus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/passvault/internal/models"
)

//go:generate moq -out repository_mock.go . Repository

// Repository - broadcast-канал статуса синхронизации items.
// Семантика replay-latest: опоздавший подписчик сразу получает последний
// статус, а не историю.
type Repository interface {
	// SetMode переключает режим показа прогресса пользователю
	SetMode(mode models.SyncMode)

	// Mode возвращает текущий режим
	Mode() models.SyncMode

	// Emit публикует статус всем подписчикам. Медленный подписчик
	// теряет промежуточные статусы, но всегда увидит последний.
	Emit(status models.SyncStatus)

	// Observe подписывает на статусы. Если статус уже публиковался,
	// канал сразу отдаст последний. Отписка через cancel.
	Observe() (ch <-chan models.SyncStatus, cancel func())
}

type repository struct {
	mu          sync.Mutex
	mode        models.SyncMode
	last        models.SyncStatus
	subscribers map[string]chan models.SyncStatus
}

// NewRepository создает broadcast-репозиторий статуса синхронизации
func NewRepository() Repository {
	return &repository{
		subscribers: make(map[string]chan models.SyncStatus),
	}
}

func (r *repository) SetMode(mode models.SyncMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

func (r *repository) Mode() models.SyncMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *repository) Emit(status models.SyncStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = status
	for _, ch := range r.subscribers {
		// Буфер на один элемент: вытесняем устаревший статус,
		// чтобы никогда не блокироваться на медленном подписчике
		select {
		case ch <- status:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

func (r *repository) Observe() (<-chan models.SyncStatus, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan models.SyncStatus, 1)
	if r.last != nil {
		ch <- r.last
	}
	r.subscribers[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}
