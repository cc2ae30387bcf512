package storage

import "context"

// TxRunner оборачивает несколько записей кэша в одну транзакцию.
// Реализация протаскивает транзакцию через context: методы storage,
// вызванные внутри fn с переданным ctx, выполняются в ней же.
// Двухфазная запись share (строка без перешифрованного контента, ключи,
// строка с перешифрованным контентом) обязана идти под одним InTransaction,
// чтобы падение между фазами не оставило share без валидного контента.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheStorage объединяет все таблицы зашифрованного кэша и транзакции
type CacheStorage interface {
	TxRunner
	ShareStorage
	ShareKeyStorage
	ItemStorage
	AssetLinkStorage
}
