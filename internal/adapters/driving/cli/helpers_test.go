package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	tm "github.com/rmraya/swordfish-core/internal/adapters/driven/engine/memory"
	memstore "github.com/rmraya/swordfish-core/internal/adapters/driven/storage/memory"
	"github.com/rmraya/swordfish-core/internal/adapters/driven/storage/sqlite"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/core/services"
)

// projectXLIFF has two files; f1/u1/s2 and f1/u2/s1 share a source and
// f1/u3 is locked.
const projectXLIFF = `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en" trgLang="es">
<file id="f1" original="a.txt">
<unit id="u1">
<originalData>
<data id="d1">&lt;b&gt;</data>
<data id="d2">&lt;/b&gt;</data>
</originalData>
<segment id="s1" state="translated">
<source>Copy <pc id="1" dataRefStart="d1" dataRefEnd="d2">30</pc> files.</source>
<target>Copie <pc id="1" dataRefStart="d1" dataRefEnd="d2">30</pc> archivos.</target>
</segment>
<ignorable>
<source> </source>
</ignorable>
<segment id="s2">
<source>Open the file.</source>
</segment>
</unit>
<unit id="u2">
<segment id="s1">
<source>Open the file.</source>
</segment>
</unit>
<unit id="u3" translate="no">
<segment id="s1">
<source>Locked text</source>
</segment>
</unit>
</file>
<file id="f2" original="b.txt">
<unit id="u4">
<segment id="s1">
<source>Close the window.</source>
</segment>
</unit>
</file>
</xliff>
`

const memoryPairs = "Close the window.\tCierre la ventana.\nOpen the file.\tAbra el archivo.\n"

const glossaryPairs = "file\tarchivo\nwindow\tventana\n"

// testEnv is a project directory with a document, a memory and a
// glossary, served by real services.
type testEnv struct {
	doc      string
	memory   string
	glossary string
	engines  *services.EngineRegistry
	config   *memstore.ConfigStore
	merger   *recordingMerger
}

// recordingMerger writes the name of each merged document.
type recordingMerger struct {
	merged []string
}

func (m *recordingMerger) Merge(_ context.Context, xliffPath, outputPath string) error {
	m.merged = append(m.merged, filepath.Base(outputPath))
	return os.WriteFile(outputPath, []byte(filepath.Base(xliffPath)), 0600)
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		doc:      filepath.Join(dir, "project.xlf"),
		memory:   filepath.Join(dir, "project.tsv"),
		glossary: filepath.Join(dir, "terms.tsv"),
		engines:  services.NewEngineRegistry(),
		config:   memstore.NewConfigStore(),
		merger:   &recordingMerger{},
	}
	require.NoError(t, os.WriteFile(env.doc, []byte(projectXLIFF), 0600))
	require.NoError(t, os.WriteFile(env.memory, []byte(memoryPairs), 0600))
	require.NoError(t, os.WriteFile(env.glossary, []byte(glossaryPairs), 0600))

	tasks := services.NewTaskRunner(domain.TaskSettings{Workers: 1, Retention: time.Minute})
	settings := services.NewSettingsService(env.config)

	SetServices(Services{
		Open: func(ctx context.Context, path, dataDir string) (driving.SegmentService, error) {
			db, err := sqlite.NewStore(dataDir)
			if err != nil {
				return nil, err
			}
			store := services.NewSegmentStore(db.SegmentRepository(), env.engines, settings.Store())
			if err := store.Open(ctx, path); err != nil {
				return nil, errors.Join(err, store.Close())
			}
			return store, nil
		},
		LoadEngine: func(id, path, srcLang, tgtLang string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			engine := tm.New(id)
			if _, err := engine.Import(f, srcLang, tgtLang); err != nil {
				return err
			}
			_ = env.engines.Close(id)
			return env.engines.Register(id, engine)
		},
		Tasks:    tasks,
		Settings: settings,
		Merger:   env.merger,
	})
	t.Cleanup(func() {
		tasks.Shutdown()
		_ = env.engines.CloseAll()
		SetServices(Services{})
	})
	return env
}

// execute runs the root command with args and returns everything written
// to its output streams.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since flag values live in package variables between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
