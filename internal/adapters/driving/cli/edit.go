package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var editMemory string

var editCmd = &cobra.Command{
	Use:   "edit <document>",
	Short: "Translate segments in an interactive editor",
	Long: `Opens a full-screen editor over the segments of a document. Confirmed
translations are pushed to the memory given with --memory.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editMemory, "memory", "", "tab-separated memory file that receives confirmed units")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		memory, _, err := loadEngines(store, editMemory, "")
		if err != nil {
			return err
		}
		app, err := tui.NewApp(&tui.Ports{Segments: store, Memory: memory})
		if err != nil {
			return err
		}
		program := tea.NewProgram(app.WithContext(ctx), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("editor: %w", err)
		}
		return nil
	})
}
