package validation

import (
	"fmt"
	"strings"
)

const (
	// MaxVaultNameLen максимальная длина имени vault
	MaxVaultNameLen = 64
	// MaxAliasPrefixLen максимальная длина префикса alias
	MaxAliasPrefixLen = 64
)

// ValidateVaultName проверяет имя создаваемого vault.
// Имя обязательно и не может состоять из одних пробелов.
func ValidateVaultName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("vault name cannot be empty")
	}
	if len(trimmed) > MaxVaultNameLen {
		return fmt.Errorf("vault name must not exceed %d characters", MaxVaultNameLen)
	}
	return nil
}

// ValidateAliasParts проверяет составные части alias.
// Суффикс выдаётся сервером и обязан быть непустым: alias без суффикса
// не собирается в адрес.
func ValidateAliasParts(prefix, suffix string) error {
	if prefix == "" {
		return fmt.Errorf("alias prefix cannot be empty")
	}
	if len(prefix) > MaxAliasPrefixLen {
		return fmt.Errorf("alias prefix must not exceed %d characters", MaxAliasPrefixLen)
	}
	if strings.ContainsAny(prefix, "@ ") {
		return fmt.Errorf("alias prefix cannot contain spaces or @")
	}
	if suffix == "" {
		return fmt.Errorf("alias suffix cannot be empty")
	}
	return nil
}
