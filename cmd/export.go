package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
	"github.com/vortexlabs/vortex-chat/internal/export"
)

var (
	exportFormat    string
	exportOutDir    string
	exportSessionID string
)

// exportCmd writes conversation transcripts to files, one per session.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversation transcripts",
	Long: `Export conversation transcripts in various formats (jsonl, md, yaml, json).

You can export all conversations or a specific one by ID.
Use 'vortex-chat list' to see available session IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := storage.Sessions()
		if err != nil {
			return fmt.Errorf("failed to load session directory: %w", err)
		}

		if exportSessionID != "" {
			filtered := make([]*internal.ChatSession, 0, 1)
			for _, session := range sessions {
				if session.ID == exportSessionID {
					filtered = append(filtered, session)
					break
				}
			}
			if len(filtered) == 0 {
				return fmt.Errorf("session not found: %s (use 'vortex-chat list' to see available sessions)", exportSessionID)
			}
			sessions = filtered
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		for _, session := range sessions {
			messages, err := storage.Messages(session.ID)
			if err != nil {
				internal.LogError("Failed to load archive for %s: %v", session.ID, err)
				continue
			}

			filename := fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension())
			path := filepath.Join(exportOutDir, filename)

			file, err := os.Create(path)
			if err != nil {
				internal.LogError("Failed to create file %s: %v", path, err)
				continue
			}

			transcript := &export.Transcript{Session: session, Messages: messages}
			if err := exporter.Export(transcript, file); err != nil {
				_ = file.Close()
				internal.LogError("Failed to export session %s: %v", session.ID, err)
				continue
			}

			if err := file.Close(); err != nil {
				internal.LogWarn("Failed to close file %s: %v", path, err)
			}
			exported++
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, exportOutDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&exportSessionID, "session-id", "", "Export a specific session by ID")
}
