package models

import "time"

// SharePermission битовая маска прав доступа к share
type SharePermission int

const (
	PermissionRead   SharePermission = 1 << iota // чтение items
	PermissionCreate                             // создание items
	PermissionUpdate                             // изменение items
	PermissionTrash                              // корзина/удаление items
	PermissionAdmin                              // управление самим share
)

// Can проверяет наличие права в маске
func (p SharePermission) Can(perm SharePermission) bool {
	return p&perm != 0
}

// Share представляет vault или расшаренную коллекцию items.
// Это расшифрованная доменная проекция: Name и Description уже открытый текст,
// полученный из локального кэша через encryption context.
type Share struct {
	CreatedAt       time.Time       `json:"created_at"`
	ID              string          `json:"id"`               // ID уникальный идентификатор share (UUID)
	UserID          string          `json:"user_id"`          // UserID владелец локальной копии
	InviterEmail    string          `json:"inviter_email"`    // InviterEmail email пригласившего (владельца vault)
	Name            string          `json:"name"`             // Name расшифрованное имя vault
	Description     string          `json:"description"`      // Description расшифрованное описание
	ContentRotation int64           `json:"content_rotation"` // ContentRotation rotation ключа, которым зашифрован контент
	Permission      SharePermission `json:"permission"`       // Permission права текущего пользователя
	IsOwner         bool            `json:"is_owner"`         // IsOwner share создан этим пользователем
	IsSelected      bool            `json:"is_selected"`      // IsSelected выбранный (текущий) vault
}

// NewVault описывает создаваемый vault до отправки на сервер
type NewVault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VaultContent — нативный формат контента vault: то, что сериализуется,
// шифруется vault-ключом и уходит на сервер в поле content.
type VaultContent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
