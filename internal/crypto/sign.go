package crypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
)

// ErrInvalidAddressSignature возвращается когда подпись ключевого материала
// не проходит проверку публичным address-ключом. Вызывающий обязан один раз
// повторить проверку после принудительного (не кэшированного) обновления
// address-ключей: ключи могли быть недавно ротированы.
var ErrInvalidAddressSignature = errors.New("invalid address signature")

// ShareKeyPayload собирает подписываемый payload share-ключа:
// shareID || rotation (big endian) || raw key bytes.
// И подпись сервера, и проверка клиента используют этот формат.
func ShareKeyPayload(shareID string, rotation int64, rawKey []byte) []byte {
	payload := make([]byte, 0, len(shareID)+8+len(rawKey))
	payload = append(payload, []byte(shareID)...)
	payload = binary.BigEndian.AppendUint64(payload, uint64(rotation))
	payload = append(payload, rawKey...)
	return payload
}

// VerifyShareKey проверяет подпись share-ключа signing-ключом share.
// Возвращает ErrInvalidAddressSignature при провале проверки.
func VerifyShareKey(signingKey ed25519.PublicKey, shareID string, rotation int64, rawKey, signature []byte) error {
	if len(signingKey) != ed25519.PublicKeySize {
		return ErrInvalidAddressSignature
	}
	if !ed25519.Verify(signingKey, ShareKeyPayload(shareID, rotation, rawKey), signature) {
		return ErrInvalidAddressSignature
	}
	return nil
}
