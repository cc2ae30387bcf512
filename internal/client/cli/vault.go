package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/passvault/internal/client/shares"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/models"
)

func (c *Cli) runVault(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: passvault vault <create|list|select|delete> [...]")
	}

	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: passvault vault create <name> [description]")
		}
		return c.vaultCreate(ctx, args[1], strings.Join(args[2:], " "))
	case "list":
		return c.vaultList(ctx)
	case "select":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault vault select <share-id>")
		}
		return c.vaultSelect(ctx, args[1])
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault vault delete <share-id>")
		}
		return c.vaultDelete(ctx, args[1])
	default:
		return fmt.Errorf("unknown vault subcommand: %s", args[0])
	}
}

func (c *Cli) vaultCreate(ctx context.Context, name, description string) error {
	share, err := c.shares.CreateVault(ctx, c.userID, models.NewVault{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Vault %q created\n", share.Name)
	fmt.Printf("Share ID: %s\n", share.ID)

	// Первый vault сразу становится выбранным
	if _, err := c.shares.GetSelectedShare(ctx, c.userID); errors.Is(err, storage.ErrNoSelectedShare) {
		if err := c.shares.SelectVault(ctx, c.userID, share.ID); err != nil {
			return err
		}
		fmt.Println("Vault selected as current.")
	}
	return nil
}

func (c *Cli) vaultList(ctx context.Context) error {
	list, err := c.shares.ListShares(ctx, c.userID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No vaults. Run 'passvault sync' or 'passvault vault create <name>'.")
		return nil
	}

	for _, s := range list {
		marker := " "
		if s.IsSelected {
			marker = "*"
		}
		owner := ""
		if !s.IsOwner {
			owner = fmt.Sprintf(" (shared by %s)", s.InviterEmail)
		}
		fmt.Printf("%s %s  %s%s\n", marker, s.ID, s.Name, owner)
		if s.Description != "" {
			fmt.Printf("    %s\n", s.Description)
		}
	}
	return nil
}

func (c *Cli) vaultSelect(ctx context.Context, shareID string) error {
	if err := c.shares.SelectVault(ctx, c.userID, shareID); err != nil {
		return err
	}
	fmt.Printf("✓ Vault %s selected\n", shareID)
	return nil
}

func (c *Cli) vaultDelete(ctx context.Context, shareID string) error {
	if err := c.shares.DeleteVault(ctx, c.userID, shareID); err != nil {
		if errors.Is(err, shares.ErrCannotDeleteSelectedVault) {
			return fmt.Errorf("vault %s is the selected vault, select another vault first", shareID)
		}
		return err
	}
	fmt.Printf("✓ Vault %s deleted\n", shareID)
	return nil
}
