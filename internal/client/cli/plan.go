package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runPlan(ctx context.Context) error {
	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	plan, err := c.plans.GetUserPlan(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Current plan: %s\n", plan.Title)
	return nil
}
