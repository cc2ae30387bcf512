package cli

import (
	"context"
	"fmt"
	"os"
)

// Run выполняет команду с аргументами
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error
	switch command {
	case "register":
		err = c.runRegister(ctx)
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "vault":
		err = c.runVault(ctx, args)
	case "item":
		err = c.runItem(ctx, args)
	case "link":
		err = c.runLink(ctx, args)
	case "suggest":
		err = c.runSuggest(ctx, args)
	case "sync":
		err = c.runSync(ctx)
	case "plan":
		err = c.runPlan(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
