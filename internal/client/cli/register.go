package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/passvault/internal/client/auth"
)

func (c *Cli) runRegister(ctx context.Context) error {
	fmt.Println("=== Register ===")
	fmt.Println()

	username, err := readInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	masterPassword, err := readPassword("Master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := readPassword("Confirm master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if masterPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("Registering...")

	authService := auth.NewService(c.apiClient)
	result, err := authService.Register(ctx, username, masterPassword)
	if err != nil {
		return err
	}
	defer result.UserKey.Clear()

	fmt.Println()
	fmt.Println("✓ Registration successful!")
	fmt.Printf("User ID: %s\n", result.UserID)
	fmt.Println()
	fmt.Println("Now run 'passvault login' to start a session.")

	return nil
}
