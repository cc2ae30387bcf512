package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/passvault/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			fmt.Println("Status: not authenticated")
			fmt.Println("Run 'passvault login' to start a session.")
			return nil
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)
	fmt.Println("Status: authenticated")
	fmt.Printf("Username:  %s\n", session.Username)
	fmt.Printf("User ID:   %s\n", session.UserID)
	if time.Now().After(expiresAt) {
		fmt.Printf("Session:   expired at %s\n", expiresAt.Format(time.RFC3339))
		fmt.Println("Run 'passvault login' again.")
	} else {
		fmt.Printf("Session:   valid until %s\n", expiresAt.Format(time.RFC3339))
	}
	return nil
}
