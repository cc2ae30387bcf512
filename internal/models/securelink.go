package models

import (
	"time"
)

// SecureLink — capability URL, дающий ограниченный по времени и числу
// прочтений доступ к одному item без доступа ко всему vault.
// URL содержит серверную часть плюс фрагмент с link-ключом; фрагмент
// никогда не отправляется на сервер.
type SecureLink struct {
	Expiration   time.Time `json:"expiration"`
	ID           string    `json:"id"`
	ShareID      string    `json:"share_id"`
	ItemID       string    `json:"item_id"`
	URL          string    `json:"url"`
	MaxReadCount int       `json:"max_read_count"`
	ReadCount    int       `json:"read_count"`
}

// SecureLinkOptions параметры создаваемого secure link
type SecureLinkOptions struct {
	ExpirationTime time.Duration
	MaxReadCount   int
}
