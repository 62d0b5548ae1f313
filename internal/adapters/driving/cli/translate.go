package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var (
	tmMemory       string
	tmSimilarity   int
	tmKey          string
	assembleMemory string
	assembleGloss  string
	assembleKey    string
)

var tmTranslateCmd = &cobra.Command{
	Use:   "tm-translate <document>",
	Short: "Fill segments from a translation memory",
	Long: `Searches a tab-separated translation memory for every unconfirmed
segment, stores the matches and applies 100% matches. With --key only one
segment is searched and its matches are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runTMTranslate,
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <document>",
	Short: "Synthesize matches from memory fragments and glossary terms",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssemble,
}

func init() {
	f := tmTranslateCmd.Flags()
	f.StringVar(&tmMemory, "memory", "", "tab-separated memory file (required)")
	f.IntVar(&tmSimilarity, "similarity", 70, "minimum similarity, 0-100")
	f.StringVar(&tmKey, "key", "", "translate only this file/unit/segment")
	_ = tmTranslateCmd.MarkFlagRequired("memory")

	f = assembleCmd.Flags()
	f.StringVar(&assembleMemory, "memory", "", "tab-separated memory file (required)")
	f.StringVar(&assembleGloss, "glossary", "", "tab-separated glossary file (required)")
	f.StringVar(&assembleKey, "key", "", "assemble only this file/unit/segment")
	_ = assembleCmd.MarkFlagRequired("memory")
	_ = assembleCmd.MarkFlagRequired("glossary")

	rootCmd.AddCommand(tmTranslateCmd, assembleCmd)
}

func runTMTranslate(cmd *cobra.Command, args []string) error {
	if tmSimilarity < 0 || tmSimilarity > 100 {
		return fmt.Errorf("similarity %d out of range: %w", tmSimilarity, domain.ErrInvalidInput)
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		memory, _, err := loadEngines(store, tmMemory, "")
		if err != nil {
			return err
		}

		if tmKey != "" {
			key, err := parseKey(tmKey)
			if err != nil {
				return err
			}
			matches, err := store.TMTranslate(ctx, key, memory, tmSimilarity)
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			cmd.Printf("%d matches for %s\n", len(matches), key)
			for _, m := range matches {
				cmd.Printf("[%d%%] %s\n", m.Similarity, m.Target.PlainText())
			}
			return nil
		}

		return runTask(cmd, "tm-translate", func(ctx context.Context, progress driving.ProgressFunc) error {
			return store.TMTranslateAll(ctx, memory, tmSimilarity, progress)
		})
	})
}

func runAssemble(cmd *cobra.Command, args []string) error {
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		memory, glossary, err := loadEngines(store, assembleMemory, assembleGloss)
		if err != nil {
			return err
		}

		if assembleKey != "" {
			key, err := parseKey(assembleKey)
			if err != nil {
				return err
			}
			match, err := store.AssembleMatches(ctx, key, memory, glossary)
			if err != nil {
				return fmt.Errorf("assembly failed: %w", err)
			}
			if match == nil {
				cmd.Printf("Nothing to assemble for %s\n", key)
				return nil
			}
			cmd.Printf("[%d%%] %s\n", match.Similarity, match.Target.PlainText())
			return nil
		}

		return runTask(cmd, "assemble", func(ctx context.Context, progress driving.ProgressFunc) error {
			return store.AssembleMatchesAll(ctx, memory, glossary, progress)
		})
	})
}
