package models

import "time"

// ShareKey представляет симметричный ключ share для конкретной rotation.
// EncryptedKey — ключ, симметрично зашифрованный user-ключом устройства;
// открытый материал ключа в этой структуре никогда не хранится.
type ShareKey struct {
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `json:"user_id"`
	ShareID      string    `json:"share_id"`
	EncryptedKey []byte    `json:"encrypted_key"`
	Rotation     int64     `json:"rotation"` // Rotation монотонно растущий номер ротации
}
