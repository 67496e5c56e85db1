package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var (
	verbose     bool
	storagePath string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vortex-chat",
	Short: "Quota-aware local chat client for the VORTEX model",
	Long: `A terminal chat client for the hosted VORTEX model with durable local history.

Conversations, attachments and the learning profile are persisted in a small
fixed-size local store. When the store fills up, the client degrades
gracefully: stale conversations are pruned first, then attachments are
stripped from older messages of the active conversation, so the newest data
always survives.

Features:
  • Streamed chat with persona, language and learned-preference instructions
  • Session directory ordered by recency, with previews
  • Automatic storage recovery under quota pressure
  • Full backup export/import to a single portable file
  • Transcript export in multiple formats (JSONL, Markdown, YAML, JSON)

Quick Start:
  vortex-chat chat "hello"          # Start a conversation
  vortex-chat list                  # List all sessions
  vortex-chat show <session-id>     # View a conversation
  vortex-chat backup export         # Save everything to one file`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Optional .env next to the binary or in the working directory.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (path to database file)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openStorage opens the quota-capped store using the effective configuration
// and returns the service plus a close function.
func openStorage() (*internal.StorageService, *internal.Config, func(), error) {
	cfg := internal.LoadConfig()
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}

	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	kv, err := internal.OpenSQLiteKV(cfg.StoragePath, cfg.QuotaBytes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	storage := internal.NewStorageService(kv, cfg.PreserveCount)
	closeFn := func() {
		if err := kv.Close(); err != nil {
			internal.LogWarn("Failed to close storage: %v", err)
		}
	}
	return storage, cfg, closeFn, nil
}
