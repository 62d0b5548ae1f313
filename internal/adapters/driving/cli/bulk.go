package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// bulkOp is a whole-document edit that reports how many segments changed.
type bulkOp struct {
	use   string
	short string
	done  string
	run   func(ctx context.Context, store driving.SegmentService) (int, error)
}

var bulkOps = []bulkOp{
	{
		use:   "confirm-all",
		short: "Confirm every translated segment",
		done:  "Confirmed",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return s.ConfirmAll(ctx)
		},
	},
	{
		use:   "unconfirm-all",
		short: "Return every confirmed segment to translated",
		done:  "Unconfirmed",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return s.UnconfirmAll(ctx)
		},
	},
	{
		use:   "remove-translations",
		short: "Clear every unconfirmed target",
		done:  "Cleared",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return s.RemoveTranslations(ctx)
		},
	},
	{
		use:   "copy-sources",
		short: "Copy the source into every empty target",
		done:  "Copied",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return s.CopySources(ctx)
		},
	},
	{
		use:   "lock-duplicates",
		short: "Lock repeated segments after their first occurrence",
		done:  "Locked",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return s.LockDuplicates(ctx)
		},
	},
	{
		use:   "unlock-all",
		short: "Unlock every segment",
		done:  "Unlocked all",
		run: func(ctx context.Context, s driving.SegmentService) (int, error) {
			return -1, s.UnlockAll(ctx)
		},
	},
}

var (
	replaceRegex         bool
	replaceCaseSensitive bool
)

var replaceCmd = &cobra.Command{
	Use:   "replace <document> <search> <replacement>",
	Short: "Replace text in unlocked targets",
	Long: `Replaces text in the targets of unlocked segments. Inline tags are left
untouched and the segment state is kept.`,
	Args: cobra.ExactArgs(3),
	RunE: runReplace,
}

func init() {
	for _, op := range bulkOps {
		rootCmd.AddCommand(newBulkCmd(op))
	}

	replaceCmd.Flags().BoolVar(&replaceRegex, "regex", false, "interpret search as a regular expression")
	replaceCmd.Flags().BoolVar(&replaceCaseSensitive, "case-sensitive", false, "case sensitive search")
	rootCmd.AddCommand(replaceCmd)
}

func newBulkCmd(op bulkOp) *cobra.Command {
	return &cobra.Command{
		Use:   op.use + " <document>",
		Short: op.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
				n, err := op.run(ctx, store)
				if err != nil {
					return fmt.Errorf("%s failed: %w", op.use, err)
				}
				if n < 0 {
					cmd.Println(op.done)
				} else {
					cmd.Printf("%s %d segments\n", op.done, n)
				}
				return nil
			})
		},
	}
}

func runReplace(cmd *cobra.Command, args []string) error {
	req := driving.ReplaceRequest{
		Search:        args[1],
		Replace:       args[2],
		Regex:         replaceRegex,
		CaseSensitive: replaceCaseSensitive,
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		n, err := store.ReplaceText(ctx, req)
		if err != nil {
			return fmt.Errorf("replace failed: %w", err)
		}
		cmd.Printf("Replaced text in %d segments\n", n)
		return nil
	})
}
