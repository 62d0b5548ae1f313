package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var (
	queryFilter        string
	queryTarget        bool
	queryRegex         bool
	queryCaseSensitive bool
	queryStates        []string
	querySort          string
	queryDescending    bool
	queryStart         int
	queryCount         int
	queryJSON          bool
)

var queryCmd = &cobra.Command{
	Use:   "query <document>",
	Short: "List segments",
	Long: `Lists segments in document order, or sorted by source, target or status.
Text filters apply to the source unless --target is given. Inline tags are
shown as {n}.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryFilter, "filter", "f", "", "text to look for")
	f.BoolVar(&queryTarget, "target", false, "filter on the target text")
	f.BoolVar(&queryRegex, "regex", false, "interpret the filter as a regular expression")
	f.BoolVar(&queryCaseSensitive, "case-sensitive", false, "case sensitive filter")
	f.StringSliceVar(&queryStates, "state", nil, "restrict to states (initial, translated, final)")
	f.StringVar(&querySort, "sort", "", "sort by source, target or status")
	f.BoolVar(&queryDescending, "desc", false, "reverse the sort")
	f.IntVar(&queryStart, "start", 0, "zero-based offset of the first row")
	f.IntVarP(&queryCount, "count", "n", 50, "maximum number of rows, 0 for all")
	f.BoolVar(&queryJSON, "json", false, "output rows as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	q := domain.SegmentQuery{
		Start:         queryStart,
		Count:         queryCount,
		Filter:        queryFilter,
		Language:      domain.FilterSource,
		CaseSensitive: queryCaseSensitive,
		Regex:         queryRegex,
		Sort:          domain.SortKey(querySort),
		Descending:    queryDescending,
	}
	if queryTarget {
		q.Language = domain.FilterTarget
	}
	for _, s := range queryStates {
		q.States = append(q.States, domain.State(s))
	}

	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		rows, err := store.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		if queryJSON {
			return printJSON(cmd, rows)
		}
		if len(rows) == 0 {
			cmd.Println("No segments found.")
			return nil
		}
		cmd.Println(renderRows(rows))
		return nil
	})
}

func renderRows(rows []domain.SegmentRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Segment", "State", "Source", "Target", "Match", "Checks")
	for _, r := range rows {
		state := string(r.State)
		if !r.Translate {
			state += " (locked)"
		}
		match := ""
		if r.Match > 0 {
			match = strconv.Itoa(r.Match) + "%"
		}
		t.Row(strconv.Itoa(r.Index), r.Key().String(), state,
			tui.DisplayText(r.Source), tui.DisplayText(r.Target), match, checks(r))
	}
	return t.String()
}

func checks(r domain.SegmentRow) string {
	switch {
	case r.TagErrors && r.SpaceErrors:
		return "tags, spaces"
	case r.TagErrors:
		return "tags"
	case r.SpaceErrors:
		return "spaces"
	default:
		return ""
	}
}
