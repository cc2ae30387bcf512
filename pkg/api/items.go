package api

// ItemResponse представляет item как его отдаёт сервер
type ItemResponse struct {
	ItemID      string `json:"item_id"`
	Content     string `json:"content"`            // base64, зашифровано item-ключом
	ItemKey     string `json:"item_key,omitempty"` // base64, item-ключ обёрнутый share-ключом (может отсутствовать)
	Revision    int64  `json:"revision"`
	KeyRotation int64  `json:"key_rotation"` // rotation share-ключа, которым обёрнут item-ключ
	State       int    `json:"state"`        // 1 = active, 2 = trashed
	CreateTime  int64  `json:"create_time"`
	ModifyTime  int64  `json:"modify_time"`
}

// ItemsPageResponse одна страница paginated листинга items
type ItemsPageResponse struct {
	Items     []ItemResponse `json:"items"`
	LastToken string         `json:"last_token,omitempty"` // токен следующей страницы, пусто на последней
	Total     int            `json:"total"`                // полное число items в share
}

// CreateItemRequest запрос на создание item
type CreateItemRequest struct {
	Content     string `json:"content"`      // base64, зашифровано item-ключом
	ItemKey     string `json:"item_key"`     // base64, item-ключ обёрнутый share-ключом
	KeyRotation int64  `json:"key_rotation"` // rotation использованного share-ключа
}

// UpdateItemRequest запрос на обновление item.
// LastRevision нужен серверу для optimistic concurrency.
type UpdateItemRequest struct {
	Content      string `json:"content"`
	KeyRotation  int64  `json:"key_rotation"`
	LastRevision int64  `json:"last_revision"`
}

// UpdateItemStateRequest запрос на перевод item в trash и обратно
type UpdateItemStateRequest struct {
	State int `json:"state"`
}
