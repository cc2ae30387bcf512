package api

// CreateSecureLinkRequest запрос на создание secure link.
// Сервер получает два ciphertext'а и никогда не видит открытый ключевой
// материал: item-ключ зашифрован link-ключом, link-ключ - share-ключом.
type CreateSecureLinkRequest struct {
	EncryptedItemKey        string `json:"encrypted_item_key"` // base64
	EncryptedLinkKey        string `json:"encrypted_link_key"` // base64
	Revision                int64  `json:"revision"`
	ExpirationTime          int64  `json:"expiration_time"` // секунды до истечения
	MaxReadCount            int    `json:"max_read_count"`
	LinkKeyShareKeyRotation int64  `json:"link_key_share_key_rotation"`
}

// CreateSecureLinkResponse ответ с серверной частью URL.
// Фрагмент с link-ключом клиент добавляет сам.
type CreateSecureLinkResponse struct {
	URL string `json:"url"`
}

// SecureLinkResponse представляет один secure link из листинга
type SecureLinkResponse struct {
	LinkID                  string `json:"link_id"`
	ShareID                 string `json:"share_id"`
	ItemID                  string `json:"item_id"`
	LinkURL                 string `json:"link_url"`
	EncryptedLinkKey        string `json:"encrypted_link_key"` // base64
	ExpirationTime          int64  `json:"expiration_time"`    // unix seconds
	MaxReadCount            int    `json:"max_read_count"`
	ReadCount               int    `json:"read_count"`
	LinkKeyShareKeyRotation int64  `json:"link_key_share_key_rotation"`
}

// SecureLinksResponse все secure links пользователя
type SecureLinksResponse struct {
	Links []SecureLinkResponse `json:"links"`
}
