package storage

import "context"

// SessionStorage defines interface for storing authentication data on client.
// This is the lowest storage layer - it works with raw data (already encrypted
// tokens) and doesn't perform any encryption/decryption itself.
type SessionStorage interface {
	// SaveSession stores session data as-is (tokens should already be encrypted)
	SaveSession(ctx context.Context, session *SessionData) error

	// GetSession retrieves stored session data as-is (tokens will be encrypted)
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*SessionData, error)

	// DeleteSession removes stored session data (logout)
	DeleteSession(ctx context.Context) error
}

// SessionData represents authentication information in storage.
// IMPORTANT: This struct is used at different layers with different token states:
// - In memory (business logic): tokens are plaintext
// - In storage (BoltDB): tokens are encrypted (base64-encoded ciphertext)
// The encryption/decryption happens in the auth service layer.
type SessionData struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	PublicSalt   string `json:"public_salt"`
	ExpiresAt    int64  `json:"expires_at"`
}
