package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/subscriptions"
	"github.com/killallgit/sermon-api/internal/services/users"
	"github.com/spf13/cobra"
)

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Manage user subscriptions",
	Long: `Administrative subscription operations.

Available subcommands:
  grant   - Put a user on a plan
  sync    - Apply a status reported by the billing provider
  expire  - Expire canceled subscriptions whose period has ended`,
}

var subscriptionGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Put a user on a plan",
	Long: `Put the user with the given email on a plan. A user without an
active subscription gets a new one; otherwise the plan is changed.

Example:
  sermon-api subscription grant --email pastor@example.com --plan pro`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		plan, _ := cmd.Flags().GetString("plan")
		customer, _ := cmd.Flags().GetString("customer-id")
		providerID, _ := cmd.Flags().GetString("provider-id")
		return withDatabase(func(db *database.DB) error {
			return grantSubscription(cmd.Context(), cmd.OutOrStdout(), db, email, plan,
				subscriptions.WithProviderIDs(customer, providerID))
		})
	},
}

var subscriptionSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply a billing provider status",
	Long: `Apply a subscription status reported by the billing provider.

Recognized statuses: active, trialing, past_due, canceled, unpaid,
incomplete_expired, expired.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providerID, _ := cmd.Flags().GetString("provider-id")
		status, _ := cmd.Flags().GetString("status")
		return withDatabase(func(db *database.DB) error {
			return syncSubscription(cmd.Context(), cmd.OutOrStdout(), db, providerID, status)
		})
	},
}

var subscriptionExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire ended subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			n, err := subscriptionService(db).ExpireEnded(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to expire subscriptions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d subscription(s)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(subscriptionCmd)
	subscriptionCmd.AddCommand(subscriptionGrantCmd)
	subscriptionCmd.AddCommand(subscriptionSyncCmd)
	subscriptionCmd.AddCommand(subscriptionExpireCmd)

	subscriptionGrantCmd.Flags().String("email", "", "user email (required)")
	subscriptionGrantCmd.Flags().String("plan", "", "plan slug (required)")
	subscriptionGrantCmd.Flags().String("customer-id", "", "billing provider customer id")
	subscriptionGrantCmd.Flags().String("provider-id", "", "billing provider subscription id")
	_ = subscriptionGrantCmd.MarkFlagRequired("email")
	_ = subscriptionGrantCmd.MarkFlagRequired("plan")

	subscriptionSyncCmd.Flags().String("provider-id", "", "billing provider subscription id (required)")
	subscriptionSyncCmd.Flags().String("status", "", "provider status (required)")
	_ = subscriptionSyncCmd.MarkFlagRequired("provider-id")
	_ = subscriptionSyncCmd.MarkFlagRequired("status")
}

func grantSubscription(ctx context.Context, out io.Writer, db *database.DB, email, plan string, opts ...subscriptions.CreateOption) error {
	user, err := users.NewService(db.DB).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return err
	}

	svc := subscriptionService(db)
	sub, err := svc.GetActive(ctx, user.ID)
	switch {
	case errors.Is(err, subscriptions.ErrNoActiveSubscription):
		sub, err = svc.Create(ctx, user.ID, plan, opts...)
	case err == nil:
		sub, err = svc.Upgrade(ctx, user.ID, plan)
	}
	if err != nil {
		return fmt.Errorf("failed to grant %q: %w", plan, err)
	}

	printSubscription(out, sub)
	return nil
}

func syncSubscription(ctx context.Context, out io.Writer, db *database.DB, providerID, status string) error {
	sub, err := subscriptionService(db).SyncProviderStatus(ctx, providerID, status)
	if err != nil {
		return fmt.Errorf("failed to sync subscription: %w", err)
	}
	printSubscription(out, sub)
	return nil
}

func printSubscription(out io.Writer, sub *models.UserSubscription) {
	fmt.Fprintf(out, "Subscription %d: user=%d plan=%d status=%s period_end=%s\n",
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.CurrentPeriodEnd.Format(time.RFC3339))
}
