package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/passvault/internal/client/securelinks"
	"github.com/iudanet/passvault/internal/models"
)

func (c *Cli) runLink(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: passvault link <create|list> [...]")
	}

	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault link create <item-id>")
		}
		return c.linkCreate(ctx, args[1])
	case "list":
		return c.linkList(ctx)
	default:
		return fmt.Errorf("unknown link subcommand: %s", args[0])
	}
}

func (c *Cli) linkCreate(ctx context.Context, itemID string) error {
	selected, err := c.shares.GetSelectedShare(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("no vault selected, run 'passvault vault select <share-id>': %w", err)
	}

	hoursStr, err := readInput("Expiration in hours (default 168): ")
	if err != nil {
		return err
	}
	hours := 168
	if hoursStr != "" {
		if hours, err = strconv.Atoi(hoursStr); err != nil || hours <= 0 {
			return fmt.Errorf("invalid expiration hours: %s", hoursStr)
		}
	}

	readsStr, err := readInput("Max read count (0 = unlimited): ")
	if err != nil {
		return err
	}
	maxReads := 0
	if readsStr != "" {
		if maxReads, err = strconv.Atoi(readsStr); err != nil || maxReads < 0 {
			return fmt.Errorf("invalid max read count: %s", readsStr)
		}
	}

	link, err := c.links.CreateSecureLink(ctx, c.userID, selected.ID, itemID, models.SecureLinkOptions{
		ExpirationTime: time.Duration(hours) * time.Hour,
		MaxReadCount:   maxReads,
	})
	if err != nil {
		if errors.Is(err, securelinks.ErrItemKeyMissing) {
			return fmt.Errorf("item %s was created before secure link support and cannot be shared", itemID)
		}
		return err
	}

	fmt.Println("✓ Secure link created:")
	fmt.Println(link.URL)
	fmt.Printf("Expires: %s\n", link.Expiration.Format(time.RFC3339))
	return nil
}

func (c *Cli) linkList(ctx context.Context) error {
	links, err := c.links.GetSecureLinks(ctx, c.userID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Println("No secure links.")
		return nil
	}

	for _, l := range links {
		fmt.Printf("  %s  item %s\n", l.ID, l.ItemID)
		fmt.Printf("    %s\n", l.URL)
		reads := "unlimited"
		if l.MaxReadCount > 0 {
			reads = fmt.Sprintf("%d/%d", l.ReadCount, l.MaxReadCount)
		}
		fmt.Printf("    expires %s, reads %s\n", l.Expiration.Format(time.RFC3339), reads)
	}
	return nil
}
