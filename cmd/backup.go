package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var backupOut string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the full local state",
	Long: `Back up or restore everything this client persists: the session
directory, every conversation archive, the user profile, the learning profile
and the language setting, as a single portable JSON file.`,
}

// backupExportCmd writes the full snapshot to a file.
var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup file",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		path := backupOut
		if path == "" {
			path = internal.BackupFilename(time.Now())
		}

		engine := internal.NewBackupEngine(storage)
		if err := engine.ExportToFile(path); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Backup written to %s", path))
		return nil
	},
}

// backupImportCmd restores a snapshot. Keys are overwritten one at a time;
// an interruption mid-import can leave a mix of old and new data.
var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		engine := internal.NewBackupEngine(storage)
		if err := engine.ImportFromFile(args[0]); err != nil {
			return err
		}

		internal.PrintSuccess("Backup imported")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	backupExportCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Backup file path (default: date-stamped name)")
}
