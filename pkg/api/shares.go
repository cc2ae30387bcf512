package api

// ShareResponse представляет share как его отдаёт сервер.
// Все ключевые поля - base64 encoded ciphertext.
type ShareResponse struct {
	ShareID               string `json:"share_id"`
	InviterEmail          string `json:"inviter_email"`
	ContentSignatureEmail string `json:"content_signature_email,omitempty"`
	Content               string `json:"content"`             // контент vault, зашифрованный share-ключом
	ContentSignature      string `json:"content_signature"`   // подпись контента address-ключом
	SigningKey            string `json:"signing_key"`         // публичный signing-ключ share (base64)
	ContentRotationID     int64  `json:"content_rotation_id"` // rotation ключа, которым зашифрован content
	Permission            int    `json:"permission"`          // битовая маска прав
	Owner                 bool   `json:"owner"`               // share создан запрашивающим
	CreateTime            int64  `json:"create_time"`         // unix seconds
}

// SharesResponse список shares пользователя
type SharesResponse struct {
	Shares []ShareResponse `json:"shares"`
}

// CreateVaultRequest представляет запрос на создание vault.
// Content зашифрован новым vault-ключом; EncryptedVaultKey - сам vault-ключ,
// обёрнутый user-ключом для server-side escrow. Сервер назначает rotation id,
// подписывает escrow-ключ address-ключом пользователя и возвращает share
// с заполненными signing_key и content_rotation_id.
type CreateVaultRequest struct {
	Content           string `json:"content"`             // base64, зашифровано vault-ключом
	EncryptedVaultKey string `json:"encrypted_vault_key"` // base64
}

// ShareKeyResponse представляет один share-ключ для конкретной rotation.
// Key обёрнут user-ключом; Signature — подпись сырого ключа signing-ключом share.
type ShareKeyResponse struct {
	Key          string `json:"key"`           // base64
	KeySignature string `json:"key_signature"` // base64
	KeyRotation  int64  `json:"key_rotation"`
	CreateTime   int64  `json:"create_time"`
}

// ShareKeysResponse все ключи share по rotations
type ShareKeysResponse struct {
	Keys []ShareKeyResponse `json:"keys"`
}
