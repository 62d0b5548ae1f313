package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Quality checks",
}

var checkTagsCmd = &cobra.Command{
	Use:   "tags <document>",
	Short: "List segments whose target tags differ from the source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckTags,
}

var checkSpacesCmd = &cobra.Command{
	Use:   "spaces <document>",
	Short: "List segments whose outer whitespace differs",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckSpaces,
}

var fixSpacesCmd = &cobra.Command{
	Use:   "fix-spaces <document>",
	Short: "Copy the source outer whitespace onto the target",
	Args:  cobra.ExactArgs(1),
	RunE:  runFixSpaces,
}

func init() {
	checkCmd.PersistentFlags().BoolVar(&checkJSON, "json", false, "output issues as JSON")
	checkCmd.AddCommand(checkTagsCmd, checkSpacesCmd)
	rootCmd.AddCommand(checkCmd, fixSpacesCmd)
}

func runCheckTags(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		issues, err := store.AnalyzeTags(ctx)
		if err != nil {
			return fmt.Errorf("tag check failed: %w", err)
		}
		if checkJSON {
			return printJSON(cmd, issues)
		}
		if len(issues) == 0 {
			cmd.Println("No tag errors.")
			return nil
		}
		t := table.New().Border(lipgloss.NormalBorder()).Headers("#", "Segment", "Problem")
		for _, i := range issues {
			t.Row(strconv.Itoa(i.Index), i.SegmentKey.String(), string(i.Kind))
		}
		cmd.Println(t.String())
		return nil
	})
}

func runCheckSpaces(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		issues, err := store.AnalyzeSpaces(ctx)
		if err != nil {
			return fmt.Errorf("space check failed: %w", err)
		}
		if checkJSON {
			return printJSON(cmd, issues)
		}
		if len(issues) == 0 {
			cmd.Println("No space errors.")
			return nil
		}
		t := table.New().Border(lipgloss.NormalBorder()).
			Headers("#", "Segment", "Source start", "Target start", "Source end", "Target end")
		for _, i := range issues {
			t.Row(strconv.Itoa(i.Index), i.SegmentKey.String(),
				strconv.Quote(i.SourceLeading), strconv.Quote(i.TargetLeading),
				strconv.Quote(i.SourceTrailing), strconv.Quote(i.TargetTrailing))
		}
		cmd.Println(t.String())
		return nil
	})
}

func runFixSpaces(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		n, err := store.FixSpaces(ctx)
		if err != nil {
			return fmt.Errorf("fix spaces failed: %w", err)
		}
		cmd.Printf("Fixed %d segments\n", n)
		return nil
	})
}
