package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var statsJSON bool

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))

var statsCmd = &cobra.Command{
	Use:   "stats <document>",
	Short: "Show segment statistics",
	Long: `Shows segment, word and character counts per state.
Locked segments are counted apart and excluded from the other columns.
The store is created on the first run.`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		stats, err := store.Statistics(ctx)
		if err != nil {
			return fmt.Errorf("computing statistics: %w", err)
		}
		if statsJSON {
			return printJSON(cmd, stats)
		}
		cmd.Println(renderStats(stats))
		return nil
	})
}

func renderStats(s *domain.Statistics) string {
	itoa := strconv.Itoa
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("State", "Segments", "Words").
		Row("Untranslated", itoa(s.Untranslated), itoa(s.UntranslatedWords)).
		Row("Translated", itoa(s.Translated), itoa(s.TranslatedWords)).
		Row("Confirmed", itoa(s.Confirmed), itoa(s.ConfirmedWords)).
		Row("Locked", itoa(s.Locked), "-").
		Row("Total", itoa(s.Segments), itoa(s.Words))
	return headerStyle.Render("Statistics") + "\n" + t.String() + "\n" +
		fmt.Sprintf("Characters: %d", s.Chars)
}
