package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/passvault/internal/client/details"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
)

func (c *Cli) runItem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: passvault item <add|list|get|trash|untrash|delete> [...]")
	}

	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	selected, err := c.shares.GetSelectedShare(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("no vault selected, run 'passvault vault select <share-id>': %w", err)
	}

	switch args[0] {
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault item add <login|note|alias|identity|card>")
		}
		return c.itemAdd(ctx, selected.ID, args[1])
	case "list":
		return c.itemList(ctx, selected.ID)
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault item get <item-id>")
		}
		return c.itemGet(ctx, selected.ID, args[1])
	case "trash":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault item trash <item-id>")
		}
		if err := c.items.TrashItem(ctx, selected.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Item %s moved to trash\n", args[1])
		return nil
	case "untrash":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault item untrash <item-id>")
		}
		if err := c.items.UntrashItem(ctx, selected.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Item %s restored\n", args[1])
		return nil
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: passvault item delete <item-id>")
		}
		if err := c.items.DeleteItem(ctx, selected.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Item %s deleted permanently\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown item subcommand: %s", args[0])
	}
}

func (c *Cli) itemAdd(ctx context.Context, shareID, category string) error {
	contents, err := c.promptItemContents(category)
	if err != nil {
		return err
	}

	item, err := c.items.CreateItem(ctx, c.userID, shareID, *contents)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Item created: %s (revision %d)\n", item.ID, item.Revision)
	return nil
}

// promptItemContents собирает payload item'а интерактивно
func (c *Cli) promptItemContents(category string) (*models.ItemContents, error) {
	title, err := readInput("Title: ")
	if err != nil {
		return nil, err
	}
	contents := &models.ItemContents{Title: title}

	switch category {
	case "login":
		contents.Category = models.ItemCategoryLogin
		username, err := readInput("Username: ")
		if err != nil {
			return nil, err
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return nil, err
		}
		urls, err := readInput("URLs (comma separated, optional): ")
		if err != nil {
			return nil, err
		}
		login := &models.LoginContent{Username: username, Password: password}
		if urls != "" {
			for _, u := range strings.Split(urls, ",") {
				login.URLs = append(login.URLs, strings.TrimSpace(u))
			}
		}
		contents.Login = login

	case "note":
		contents.Category = models.ItemCategoryNote
		note, err := readInput("Note: ")
		if err != nil {
			return nil, err
		}
		contents.Note = note

	case "alias":
		contents.Category = models.ItemCategoryAlias
		prefix, err := readInput("Alias prefix: ")
		if err != nil {
			return nil, err
		}
		suffix, err := readInput("Alias suffix: ")
		if err != nil {
			return nil, err
		}
		contents.Alias = &models.AliasContent{
			Prefix:     prefix,
			Suffix:     suffix,
			AliasEmail: prefix + suffix,
		}

	case "identity":
		contents.Category = models.ItemCategoryIdentity
		fullName, err := readInput("Full name: ")
		if err != nil {
			return nil, err
		}
		email, err := readInput("Email: ")
		if err != nil {
			return nil, err
		}
		phone, err := readInput("Phone (optional): ")
		if err != nil {
			return nil, err
		}
		contents.Identity = &models.IdentityContent{FullName: fullName, Email: email, Phone: phone}

	case "card":
		contents.Category = models.ItemCategoryCreditCard
		holder, err := readInput("Card holder: ")
		if err != nil {
			return nil, err
		}
		number, err := readPassword("Card number: ")
		if err != nil {
			return nil, err
		}
		expiry, err := readInput("Expiry (MM/YY): ")
		if err != nil {
			return nil, err
		}
		cvv, err := readPassword("CVV: ")
		if err != nil {
			return nil, err
		}
		contents.CreditCard = &models.CreditCardContent{
			CardHolder: holder,
			Number:     number,
			Expiry:     expiry,
			CVV:        cvv,
		}

	default:
		return nil, fmt.Errorf("unknown item category: %s", category)
	}
	return contents, nil
}

func (c *Cli) itemList(ctx context.Context, shareID string) error {
	list, err := c.items.ListItems(ctx, shareID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No items in the selected vault. Run 'passvault sync' or 'passvault item add <category>'.")
		return nil
	}

	for _, item := range list {
		contents, err := c.items.DecryptContents(ctx, item)
		if err != nil {
			// Item без item-ключа листится без расшифровки
			fmt.Printf("  %s  (undecryptable: %v)\n", item.ID, err)
			continue
		}
		state := ""
		if item.State == models.ItemStateTrashed {
			state = " [trashed]"
		}
		fmt.Printf("  %s  %-10s %s%s\n", item.ID, contents.Category, contents.Title, state)
	}
	return nil
}

func (c *Cli) itemGet(ctx context.Context, shareID, itemID string) error {
	item, err := c.items.GetByID(ctx, shareID, itemID)
	if err != nil {
		return err
	}

	detail, err := c.details.ObserveDetails(ctx, item)
	if err != nil {
		return err
	}

	fmt.Printf("Title:    %s\n", detail.Title)
	fmt.Printf("Category: %s\n", detail.Category)
	fmt.Printf("Revision: %d\n", item.Revision)
	if detail.Note != "" {
		fmt.Printf("Note:     %s\n", detail.Note)
	}

	reveal, err := readInput("Reveal hidden fields? (y/N): ")
	if err != nil {
		return err
	}
	doReveal := strings.EqualFold(reveal, "y")

	return c.provider.WithContext(func(cc *crypto.Context) error {
		for _, f := range detail.Fields {
			if f.Hidden == nil {
				if f.Value != "" {
					fmt.Printf("%-12s %s\n", f.Label+":", f.Value)
				}
				continue
			}

			state := f.Hidden
			if doReveal {
				var err error
				state, err = details.ToggleHiddenState(cc, state)
				if err != nil {
					return err
				}
			}
			switch s := state.(type) {
			case models.HiddenRevealed:
				fmt.Printf("%-12s %s\n", f.Label+":", s.ClearText)
			case models.HiddenEmpty:
				fmt.Printf("%-12s (empty)\n", f.Label+":")
			default:
				fmt.Printf("%-12s ********\n", f.Label+":")
			}
		}
		return nil
	})
}
