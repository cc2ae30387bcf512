package models

// HiddenState — tri-state обёртка над чувствительным полем для отображения.
// Переходы между состояниями разрешены только через toggle видимости,
// и каждый переход проходит через encryption context.
//
// Инвариант: в Revealed ClearText всегда является точной расшифровкой
// Encrypted под текущим контекстом вызывающего.
type HiddenState interface {
	// EncryptedBytes возвращает ciphertext, который несёт каждое состояние
	EncryptedBytes() []byte

	hiddenState()
}

// HiddenEmpty — поле заведомо пустое, но всё равно хранит зашифрованный placeholder
type HiddenEmpty struct {
	Encrypted []byte
}

// HiddenConcealed — поле зашифровано и ещё не расшифровывалось для показа
type HiddenConcealed struct {
	Encrypted []byte
}

// HiddenRevealed — ciphertext и его расшифровка удерживаются одновременно
type HiddenRevealed struct {
	ClearText string
	Encrypted []byte
}

func (h HiddenEmpty) EncryptedBytes() []byte     { return h.Encrypted }
func (h HiddenConcealed) EncryptedBytes() []byte { return h.Encrypted }
func (h HiddenRevealed) EncryptedBytes() []byte  { return h.Encrypted }

func (HiddenEmpty) hiddenState()     {}
func (HiddenConcealed) hiddenState() {}
func (HiddenRevealed) hiddenState()  {}
