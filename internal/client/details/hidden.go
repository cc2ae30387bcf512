package details

import (
	"fmt"

	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
)

// ToggleHiddenState переключает видимость чувствительного поля.
// Единственный разрешённый способ переходов между состояниями; каждый
// переход проходит через encryption context.
//
// Concealed -> Revealed (расшифровка), Revealed -> Concealed.
// Concealed с пустым plaintext раскрывается в Empty, а не в Revealed
// с пустой строкой. Empty неподвижная точка: повторные toggle её не меняют.
func ToggleHiddenState(c *crypto.Context, state models.HiddenState) (models.HiddenState, error) {
	switch s := state.(type) {
	case models.HiddenEmpty:
		return s, nil

	case models.HiddenConcealed:
		plaintext, err := c.Decrypt(s.Encrypted, crypto.TagNone)
		if err != nil {
			return nil, fmt.Errorf("failed to reveal hidden field: %w", err)
		}
		if len(plaintext) == 0 {
			return models.HiddenEmpty{Encrypted: s.Encrypted}, nil
		}
		return models.HiddenRevealed{
			Encrypted: s.Encrypted,
			ClearText: string(plaintext),
		}, nil

	case models.HiddenRevealed:
		return models.HiddenConcealed{Encrypted: s.Encrypted}, nil

	default:
		return nil, fmt.Errorf("unknown hidden state %T", state)
	}
}

// ConcealString шифрует чувствительное значение в начальное скрытое состояние
func ConcealString(c *crypto.Context, value string) (models.HiddenState, error) {
	encrypted, err := c.Encrypt([]byte(value), crypto.TagNone)
	if err != nil {
		return nil, fmt.Errorf("failed to conceal field: %w", err)
	}
	if value == "" {
		return models.HiddenEmpty{Encrypted: encrypted}, nil
	}
	return models.HiddenConcealed{Encrypted: encrypted}, nil
}
