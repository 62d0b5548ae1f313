package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var updateCmd = &cobra.Command{
	Use:   "update <document>",
	Short: "Write the stored translations back into the document",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var exportCmd = &cobra.Command{
	Use:   "export <document> <output.xlf>",
	Short: "Write the updated document to another file",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

var exportTranslationsCmd = &cobra.Command{
	Use:   "export-translations <document> <directory>",
	Short: "Write one translated file per original file",
	Long: `Splits the updated document per original file and rebuilds each one
into the directory under its original base name. Units without a target
are written with their source text.`,
	Args: cobra.ExactArgs(2),
	RunE: runExportTranslations,
}

func init() {
	rootCmd.AddCommand(updateCmd, exportCmd, exportTranslationsCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		if err := store.UpdateXliff(ctx); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		cmd.Printf("Updated %s\n", args[0])
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		if err := store.ExportXliff(ctx, args[1]); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		cmd.Printf("Exported %s\n", args[1])
		return nil
	})
}

func runExportTranslations(cmd *cobra.Command, args []string) error {
	if merger == nil {
		return fmt.Errorf("no merger configured: %w", domain.ErrInvalidInput)
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		if err := store.ExportTranslations(ctx, args[1], merger); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		cmd.Printf("Exported translations to %s\n", args[1])
		return nil
	})
}
