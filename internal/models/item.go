package models

import "time"

// ItemState состояние жизненного цикла item
type ItemState int

const (
	ItemStateActive  ItemState = 1
	ItemStateTrashed ItemState = 2
)

// ItemCategory категория item — закрытый набор вариантов
type ItemCategory string

const (
	ItemCategoryLogin      ItemCategory = "login"
	ItemCategoryAlias      ItemCategory = "alias"
	ItemCategoryNote       ItemCategory = "note"
	ItemCategoryIdentity   ItemCategory = "identity"
	ItemCategoryCreditCard ItemCategory = "credit_card"
)

// Item представляет зашифрованный секрет, принадлежащий share.
// Content зашифрован item-ключом; EncryptedKey — item-ключ, перешифрованный
// user-ключом устройства (опционален: items, созданные до поддержки
// secure links, его не имеют).
type Item struct {
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
	ID           string    `json:"id"`
	ShareID      string    `json:"share_id"`
	Content      []byte    `json:"content"`       // Content зашифрованный сериализованный payload
	EncryptedKey []byte    `json:"encrypted_key"` // EncryptedKey опциональный item-ключ (nil если отсутствует)
	Revision     int64     `json:"revision"`      // Revision монотонно растёт при каждом update
	KeyRotation  int64     `json:"key_rotation"`  // KeyRotation rotation share-ключа, которым обёрнут item-ключ на сервере
	State        ItemState `json:"state"`
}

// ItemContents — расшифрованный payload item'а: нативный формат сериализации.
// Заполнено только поле, соответствующее Category.
type ItemContents struct {
	Login      *LoginContent      `json:"login,omitempty"`
	Alias      *AliasContent      `json:"alias,omitempty"`
	Identity   *IdentityContent   `json:"identity,omitempty"`
	CreditCard *CreditCardContent `json:"credit_card,omitempty"`
	Title      string             `json:"title"`
	Note       string             `json:"note"`
	Category   ItemCategory       `json:"category"`
}

// LoginContent данные категории login
type LoginContent struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	TOTPURI  string   `json:"totp_uri,omitempty"`
	URLs     []string `json:"urls,omitempty"`
}

// AliasContent данные категории alias.
// Suffix обязателен при создании alias — пустой suffix это нарушение инварианта.
type AliasContent struct {
	Prefix     string `json:"prefix"`
	Suffix     string `json:"suffix"`
	AliasEmail string `json:"alias_email"`
}

// IdentityContent данные категории identity
type IdentityContent struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// CreditCardContent данные банковской карты
type CreditCardContent struct {
	CardHolder string `json:"card_holder"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"` // формат MM/YY
	CVV        string `json:"cvv"`
	PIN        string `json:"pin,omitempty"`
}
