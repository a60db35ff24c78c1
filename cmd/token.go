package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/auth"
	"github.com/killallgit/sermon-api/internal/services/users"
	"github.com/killallgit/sermon-api/pkg/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	Long: `Issue a bearer token for the user with the given email, creating
the account when it does not exist. Useful for local testing and for
service accounts.

Example:
  sermon-api token --email pastor@example.com --name "Pastor Jo"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := config.GetConfig()
		if err != nil {
			return err
		}
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		tokens, err := auth.NewService(cfg.Auth.JWTSecret, ttl, cfg.Auth.Issuer)
		if err != nil {
			if errors.Is(err, auth.ErrMissingKey) {
				return errors.New("auth.jwt_secret must be set to issue tokens the server will accept")
			}
			return err
		}

		return withDatabase(func(db *database.DB) error {
			return issueToken(cmd.Context(), cmd.OutOrStdout(), db, tokens, email, name)
		})
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("email", "", "user email (required)")
	tokenCmd.Flags().String("name", "", "display name for a new user")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("email")
}

func issueToken(ctx context.Context, out io.Writer, db *database.DB, tokens *auth.Service, email, name string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("failed to migrate users: %w", err)
	}

	user, err := users.NewService(db.DB).Ensure(ctx, email, name)
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}

	token, expiresAt, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Fprintf(out, "User:    %d <%s>\n", user.ID, user.Email)
	fmt.Fprintf(out, "Expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Token:   %s\n", token)
	return nil
}
