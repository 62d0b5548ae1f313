package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

var (
	saveConfirm   bool
	saveMemory    string
	lockRelease   bool
	notesAdd      string
	notesRemove   int
	matchesJSON   bool
	termsGlossary string
)

var saveCmd = &cobra.Command{
	Use:   "save <document> <file/unit/segment> <target>",
	Short: "Store a translation",
	Long: `Stores the target of a segment. Inline tags are written as {n}, numbered
as in query output. With --confirm the segment becomes final, its
translation is propagated to similar segments and, when --memory is
given, pushed to that memory.`,
	Args: cobra.ExactArgs(3),
	RunE: runSave,
}

var sourceCmd = &cobra.Command{
	Use:   "source <document> <file/unit/segment> <source>",
	Short: "Replace the source of a segment",
	Args:  cobra.ExactArgs(3),
	RunE:  runSource,
}

var splitCmd = &cobra.Command{
	Use:   "split <document> <file/unit/segment> <offset>",
	Short: "Split a segment at a character offset of its source",
	Args:  cobra.ExactArgs(3),
	RunE:  runSplit,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <document> <file/unit/segment>",
	Short: "Merge a segment into the previous segment of its unit",
	Args:  cobra.ExactArgs(2),
	RunE:  runMerge,
}

var lockCmd = &cobra.Command{
	Use:   "lock <document> <file/unit/segment>",
	Short: "Lock or unlock a segment",
	Args:  cobra.ExactArgs(2),
	RunE:  runLock,
}

var matchesCmd = &cobra.Command{
	Use:   "matches <document> <file/unit/segment>",
	Short: "List the stored matches of a segment",
	Args:  cobra.ExactArgs(2),
	RunE:  runMatches,
}

var notesCmd = &cobra.Command{
	Use:   "notes <document> <file/unit/segment>",
	Short: "List, add or remove segment notes",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotes,
}

var termsCmd = &cobra.Command{
	Use:   "terms <document> <file/unit/segment>",
	Short: "List glossary terms of a segment",
	Long: `Lists the glossary terms stored for a segment. With --glossary the
segment is first looked up in that tab-separated glossary file.`,
	Args: cobra.ExactArgs(2),
	RunE: runTerms,
}

func init() {
	saveCmd.Flags().BoolVar(&saveConfirm, "confirm", false, "confirm and propagate the translation")
	saveCmd.Flags().StringVar(&saveMemory, "memory", "", "tab-separated memory file that receives confirmed units")
	lockCmd.Flags().BoolVar(&lockRelease, "unlock", false, "unlock instead of lock")
	notesCmd.Flags().StringVar(&notesAdd, "add", "", "add a note with this text")
	notesCmd.Flags().IntVar(&notesRemove, "remove", 0, "remove the note with this id")
	matchesCmd.Flags().BoolVar(&matchesJSON, "json", false, "output matches as JSON")
	termsCmd.Flags().StringVar(&termsGlossary, "glossary", "", "tab-separated glossary file to search")

	rootCmd.AddCommand(saveCmd, sourceCmd, splitCmd, mergeCmd, lockCmd, matchesCmd, notesCmd, termsCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		memory, _, err := loadEngines(store, saveMemory, "")
		if err != nil {
			return err
		}
		seg, err := store.SaveSegment(ctx, driving.SaveRequest{
			Key:     key,
			Target:  tui.MarkupText(args[2]),
			Confirm: saveConfirm,
			Memory:  memory,
		})
		if err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		cmd.Printf("%s: %s\n", seg.SegmentKey, seg.State)
		return nil
	})
}

func runSource(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		seg, err := store.SaveSource(ctx, key, tui.MarkupText(args[2]))
		if err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		cmd.Printf("%s: %d words\n", seg.SegmentKey, seg.Words)
		return nil
	})
}

func runSplit(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	offset, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("offset must be a number: %w", err)
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		id, err := store.SplitSegment(ctx, key, offset)
		if err != nil {
			return fmt.Errorf("split failed: %w", err)
		}
		cmd.Printf("New segment: %s/%s/%s\n", key.File, key.Unit, id)
		return nil
	})
}

func runMerge(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		id, err := store.MergeSegment(ctx, key)
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}
		cmd.Printf("Merged into: %s/%s/%s\n", key.File, key.Unit, id)
		return nil
	})
}

func runLock(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		if err := store.LockSegment(ctx, key, !lockRelease); err != nil {
			return fmt.Errorf("lock failed: %w", err)
		}
		if lockRelease {
			cmd.Printf("Unlocked %s\n", key)
		} else {
			cmd.Printf("Locked %s\n", key)
		}
		return nil
	})
}

func runMatches(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		matches, err := store.Matches(ctx, key)
		if err != nil {
			return fmt.Errorf("listing matches: %w", err)
		}
		if matchesJSON {
			return printJSON(cmd, matches)
		}
		if len(matches) == 0 {
			cmd.Println("No matches.")
			return nil
		}
		for _, m := range matches {
			cmd.Printf("[%d%%] %s (%s)\n", m.Similarity, m.Origin, m.Type)
			cmd.Printf("    %s\n", m.Source.PlainText())
			cmd.Printf("    %s\n", m.Target.PlainText())
		}
		return nil
	})
}

func runNotes(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		if notesAdd != "" {
			id, err := store.AddNote(ctx, key, notesAdd)
			if err != nil {
				return fmt.Errorf("adding note: %w", err)
			}
			cmd.Printf("Added note %d\n", id)
		}
		if notesRemove > 0 {
			if err := store.RemoveNote(ctx, key, notesRemove); err != nil {
				return fmt.Errorf("removing note: %w", err)
			}
			cmd.Printf("Removed note %d\n", notesRemove)
		}

		notes, err := store.Notes(ctx, key)
		if err != nil {
			return fmt.Errorf("listing notes: %w", err)
		}
		for _, n := range notes {
			cmd.Printf("%d. %s\n", n.ID, n.Text)
		}
		return nil
	})
}

func runTerms(cmd *cobra.Command, args []string) error {
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	return withStore(cmd, args[0], func(ctx context.Context, store driving.SegmentService) error {
		_, glossary, err := loadEngines(store, "", termsGlossary)
		if err != nil {
			return err
		}
		if glossary != "" {
			if _, err := store.SearchTerms(ctx, key, glossary); err != nil {
				return fmt.Errorf("searching terms: %w", err)
			}
		}
		terms, err := store.Terms(ctx, key)
		if err != nil {
			return fmt.Errorf("listing terms: %w", err)
		}
		if len(terms) == 0 {
			cmd.Println("No terms.")
			return nil
		}
		for _, term := range terms {
			cmd.Printf("%s = %s (%s)\n", term.Source, term.Target, term.Origin)
		}
		return nil
	})
}
