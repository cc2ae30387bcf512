package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/auth"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/crypto"
)

func (c *Cli) runLogin(ctx context.Context) error {
	fmt.Println("=== Login ===")
	fmt.Println()

	username, err := readInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	masterPassword, err := readPassword("Master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Println()
	fmt.Println("Authenticating...")

	authService := auth.NewService(c.apiClient)
	result, err := authService.Login(ctx, username, masterPassword)
	if err != nil {
		return err
	}
	defer result.UserKey.Clear()

	// Токены сохраняются зашифрованными user-ключом
	provider := crypto.NewProvider(result.UserKey)
	sessionStore := auth.NewSessionStore(c.sessions, provider)

	session := &storage.SessionData{
		Username:     result.Username,
		UserID:       result.UserID,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		PublicSalt:   result.PublicSalt,
		ExpiresAt:    time.Now().Unix() + result.ExpiresIn,
	}
	if err := sessionStore.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Login successful!")
	fmt.Printf("Username: %s\n", result.Username)
	fmt.Printf("Access token expires in: %d seconds\n", result.ExpiresIn)
	fmt.Println()
	fmt.Println("Your session has been saved securely.")

	return nil
}
