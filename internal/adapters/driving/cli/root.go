// Package cli provides the swordfish command line over the segment store.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	verbose bool
	dataDir string
)

// StoreOpener opens the segment store of a document kept in dataDir.
type StoreOpener func(ctx context.Context, path, dataDir string) (driving.SegmentService, error)

// EngineLoader reads a tab-separated source/target file into a new engine
// registered under id.
type EngineLoader func(id, path, srcLang, tgtLang string) error

// Services holds the collaborators the commands use, wired by the entry point.
type Services struct {
	Open       StoreOpener
	LoadEngine EngineLoader
	Tasks      driving.TaskService
	Settings   driving.SettingsService
	Merger     driven.Merger
}

var (
	openStore       StoreOpener
	loadEngine      EngineLoader
	taskService     driving.TaskService
	settingsService driving.SettingsService
	merger          driven.Merger
)

var rootCmd = &cobra.Command{
	Use:   "swordfish",
	Short: "Segment store for XLIFF 2.0 translation projects",
	Long: `Swordfish keeps the segments of an XLIFF 2.0 document in a persistent
store next to it, so translations can be queried, edited, propagated,
matched against memories and exported back to XLIFF.

Every command takes the document path; the store is created on first use
and reopened afterwards without reparsing the document.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "store directory (default: .swordfish/<document> next to the document)")
}

// SetServices injects the collaborators used by the commands.
func SetServices(s Services) {
	openStore = s.Open
	loadEngine = s.LoadEngine
	taskService = s.Tasks
	settingsService = s.Settings
	merger = s.Merger
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// defaultDataDir places the store of path under .swordfish/<base name>
// in the document directory.
func defaultDataDir(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), ".swordfish", base)
}

// withStore opens the store of the document, runs fn and closes the store.
func withStore(cmd *cobra.Command, path string, fn func(ctx context.Context, store driving.SegmentService) error) (err error) {
	if openStore == nil {
		return errors.New("segment store not configured")
	}
	dir := dataDir
	if dir == "" {
		dir = defaultDataDir(path)
	}

	ctx := commandContext(cmd)
	store, err := openStore(ctx, path, dir)
	if err != nil {
		if errors.Is(err, domain.ErrLegacyStore) {
			return fmt.Errorf("%s: %w", dir, err)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing store: %w", cerr))
		}
	}()
	return fn(ctx, store)
}

// loadEngines registers the memory and glossary files given on the command
// line and returns their ids. Empty paths are skipped.
func loadEngines(store driving.SegmentService, memoryPath, glossaryPath string) (memory, glossary string, err error) {
	if memoryPath == "" && glossaryPath == "" {
		return "", "", nil
	}
	if loadEngine == nil {
		return "", "", errors.New("translation engines not configured")
	}
	src, tgt := store.Languages()
	if memoryPath != "" {
		memory = engineID(memoryPath)
		if err := loadEngine(memory, memoryPath, src, tgt); err != nil {
			return "", "", fmt.Errorf("loading memory %s: %w", memoryPath, err)
		}
	}
	if glossaryPath != "" {
		glossary = engineID(glossaryPath)
		if glossary == memory {
			glossary += "-glossary"
		}
		if err := loadEngine(glossary, glossaryPath, src, tgt); err != nil {
			return "", "", fmt.Errorf("loading glossary %s: %w", glossaryPath, err)
		}
	}
	return memory, glossary, nil
}

// engineID names an engine after its file, without extension.
func engineID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// parseKey parses a file/unit/segment segment address.
func parseKey(s string) (domain.SegmentKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return domain.SegmentKey{}, fmt.Errorf("segment %q must be file/unit/segment: %w", s, domain.ErrInvalidInput)
	}
	return domain.SegmentKey{File: parts[0], Unit: parts[1], Segment: parts[2]}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
