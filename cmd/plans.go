package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/subscriptions"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage subscription plans",
}

var plansSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or update the default plans",
	Long: `Create or update the built-in Free, Basic and Pro plans.

Seeding is idempotent; existing plans are matched by slug and updated
in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			return seedPlans(cmd.Context(), cmd.OutOrStdout(), db)
		})
	},
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			return listPlans(cmd.Context(), cmd.OutOrStdout(), db)
		})
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansSeedCmd)
	plansCmd.AddCommand(plansListCmd)
}

func subscriptionService(db *database.DB) subscriptions.Service {
	return subscriptions.NewService(subscriptions.NewRepository(db.DB))
}

func seedPlans(ctx context.Context, out io.Writer, db *database.DB) error {
	if err := db.AutoMigrate(&models.SubscriptionPlan{}); err != nil {
		return fmt.Errorf("failed to migrate plans: %w", err)
	}
	plans, err := subscriptionService(db).SeedDefaultPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	fmt.Fprintf(out, "Seeded %d plan(s)\n", len(plans))
	return printPlans(out, plans)
}

func listPlans(ctx context.Context, out io.Writer, db *database.DB) error {
	plans, err := subscriptionService(db).ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}
	return printPlans(out, plans)
}

func printPlans(out io.Writer, plans []models.SubscriptionPlan) error {
	for _, p := range plans {
		if _, err := fmt.Fprintf(out, "  %-8s %-8s $%6.2f  %s  %s\n",
			p.Slug, p.Name, p.PriceMonthly, limitLabel(p.TranscriptionCountLimit, "sermons"),
			limitLabel(p.TranscriptionTimeLimit/60, "minutes")); err != nil {
			return err
		}
	}
	return nil
}

func limitLabel(limit int, unit string) string {
	if limit <= 0 {
		return "unlimited " + unit
	}
	return fmt.Sprintf("%d %s", limit, unit)
}
