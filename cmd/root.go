package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/sermon-api/pkg/config"
	"github.com/killallgit/sermon-api/pkg/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sermon-api",
	Short: "Sermon Notes API server",
	Long: `Sermon Notes API - turns recorded sermons into study notes

Upload sermon audio and receive a transcript, a bullet-point summary and
the books of the Bible it references. Usage is metered per month against
the account's subscription plan.

Features:
  • Asynchronous transcription jobs (upload, then poll)
  • whisper.cpp or OpenAI-compatible speech recognition
  • Map-reduce summaries of long transcripts
  • Saved sermon library per account
  • Subscription plans with monthly usage limits`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Add persistent flags for logging configuration
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error); overrides logging.level")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs; overrides logging.format")
}

// setup loads configuration and installs the logger for commands that need them
func setup(cmd *cobra.Command, args []string) error {
	if !needsConfig(cmd) {
		logging.Init(flagString(cmd, "log-level", "info"), flagBool(cmd, "json-logs", false))
		return nil
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	level := flagString(cmd, "log-level", config.GetString("logging.level"))
	json := flagBool(cmd, "json-logs", config.GetString("logging.format") == "json")
	logging.Init(level, json)
	return nil
}

func needsConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return false
	}
	return true
}

func flagString(cmd *cobra.Command, name, fallback string) string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return f.Value.String()
	}
	return fallback
}

func flagBool(cmd *cobra.Command, name string, fallback bool) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		v, err := cmd.Flags().GetBool(name)
		if err == nil {
			return v
		}
	}
	return fallback
}
