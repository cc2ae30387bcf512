package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/iudanet/passvault/internal/models"
)

func (c *Cli) runSuggest(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: passvault suggest <host>")
	}
	host := args[0]

	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	packages, err := c.assets.PackagesForHost(ctx, host)
	if err != nil {
		return err
	}
	if len(packages) > 0 {
		fmt.Println("Associated apps:")
		for _, p := range packages {
			fmt.Printf("  %s\n", p)
		}
	}

	selected, err := c.shares.GetSelectedShare(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("no vault selected, run 'passvault vault select <share-id>': %w", err)
	}

	list, err := c.items.ListItems(ctx, selected.ID)
	if err != nil {
		return err
	}

	found := false
	for _, item := range list {
		if item.State != models.ItemStateActive {
			continue
		}
		contents, err := c.items.DecryptContents(ctx, item)
		if err != nil || contents.Login == nil {
			continue
		}
		if loginMatchesHost(contents.Login, host) {
			fmt.Printf("  %s  %s (%s)\n", item.ID, contents.Title, contents.Login.Username)
			found = true
		}
	}
	if !found && len(packages) == 0 {
		fmt.Printf("No suggestions for %s\n", host)
	}
	return nil
}

func loginMatchesHost(login *models.LoginContent, host string) bool {
	for _, raw := range login.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		candidate := u.Hostname()
		if candidate == "" {
			candidate = strings.SplitN(raw, "/", 2)[0]
		}
		if candidate == host || strings.HasSuffix(candidate, "."+host) {
			return true
		}
	}
	return false
}
