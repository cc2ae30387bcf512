package addresses

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/passvault/pkg/api"
)

// Source определяет откуда брать address-ключ
type Source int

const (
	// SourceLocalIfAvailable - из кэша, если он есть
	SourceLocalIfAvailable Source = iota
	// SourceRemoteNoCache - принудительно с сервера, минуя все кэши.
	// Используется при одном повторе после InvalidAddressSignature:
	// подпись могла не сойтись из-за устаревшего ключа недавно
	// ротированного адреса.
	SourceRemoteNoCache
)

//go:generate moq -out source_mock.go . KeySource

// KeySource выдает публичные address-ключи по email
type KeySource interface {
	GetPublicAddressKey(ctx context.Context, email string, source Source) (ed25519.PublicKey, error)
}

type remoteAPI interface {
	GetAddressKey(ctx context.Context, email string, noCache bool) (*api.AddressKeyResponse, error)
}

// keySource кэширует address-ключи в памяти процесса
type keySource struct {
	remote remoteAPI
	logger *slog.Logger
	cache  map[string]ed25519.PublicKey
	mu     sync.RWMutex
}

// NewKeySource создает источник address-ключей с in-memory кэшем
func NewKeySource(remote remoteAPI, logger *slog.Logger) KeySource {
	return &keySource{
		remote: remote,
		logger: logger,
		cache:  make(map[string]ed25519.PublicKey),
	}
}

func (s *keySource) GetPublicAddressKey(ctx context.Context, email string, source Source) (ed25519.PublicKey, error) {
	if source == SourceLocalIfAvailable {
		s.mu.RLock()
		key, ok := s.cache[email]
		s.mu.RUnlock()
		if ok {
			return key, nil
		}
	}

	resp, err := s.remote.GetAddressKey(ctx, email, source == SourceRemoteNoCache)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch address key for %s: %w", email, err)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address key for %s: %w", email, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("address key for %s has wrong size %d", email, len(raw))
	}

	key := ed25519.PublicKey(raw)

	s.mu.Lock()
	s.cache[email] = key
	s.mu.Unlock()

	s.logger.Debug("fetched address key", "email", email, "no_cache", source == SourceRemoteNoCache)

	return key, nil
}
