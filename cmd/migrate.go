package cmd

import (
	"fmt"
	"io"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage database migrations for the Sermon Notes API.

Migrations are applied with GORM AutoMigrate, which creates missing tables,
columns and indexes but never drops anything.

Available subcommands:
  up      - Apply all pending migrations
  status  - Show which tables exist`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Long: `Apply all pending database migrations.

Every model table is created or altered to match the current schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return withDatabase(func(db *database.DB) error {
			return migrateUp(cmd.OutOrStdout(), db, dryRun)
		})
	},
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Display the current status of database migrations.

This command lists every model table and whether it exists yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DB) error {
			_, err := migrationStatus(cmd.OutOrStdout(), db)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

func migrateUp(out io.Writer, db *database.DB, dryRun bool) error {
	if dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		pending, err := migrationStatus(out, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d table(s) would be created\n", pending)
		return nil
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintf(out, "Migrated %d model(s)\n", len(models.All()))
	return nil
}

// migrationStatus prints one line per model table and returns how many are missing
func migrationStatus(out io.Writer, db *database.DB) (int, error) {
	fmt.Fprintln(out, "Database Migration Status")
	fmt.Fprintln(out, separator)

	missing := 0
	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db.DB}
		if err := stmt.Parse(m); err != nil {
			return 0, fmt.Errorf("failed to parse model %T: %w", m, err)
		}

		state := "applied"
		if !db.HasTable(m) {
			state = "pending"
			missing++
		}
		fmt.Fprintf(out, "  %-24s %s\n", stmt.Schema.Table, state)
	}
	return missing, nil
}
