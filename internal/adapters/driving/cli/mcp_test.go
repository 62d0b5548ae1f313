package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "github.com/rmraya/swordfish-core/internal/adapters/driven/engine/memory"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// languageStore answers Languages and nothing else.
type languageStore struct {
	driving.SegmentService
}

func (languageStore) Languages() (string, string) {
	return "en", "es"
}

func TestMCPServeCmd_Flags(t *testing.T) {
	for _, name := range []string{"port", "memory", "glossary", "watch"} {
		assert.NotNil(t, mcpServeCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "p", mcpServeCmd.Flags().Lookup("port").Shorthand)
}

func TestMCPServeCmd_RequiresDocument(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "mcp", "serve")

	assert.Error(t, err)
}

func TestEditCmd_RequiresDocument(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "edit")

	assert.Error(t, err)
}

func TestWatchEngines_ReloadsOnWrite(t *testing.T) {
	env := setupTestServices(t)
	require.NoError(t, loadEngine("project", env.memory, "en", "es"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := watchEngines(ctx, languageStore{}, map[string]string{env.memory: "project"})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, writeFile(env.memory, memoryPairs+"Save the file.\tGuarde el archivo.\n"))

	assert.Eventually(t, func() bool {
		engine, err := env.engines.Get("project")
		if err != nil {
			return false
		}
		return engine.(*tm.Engine).Len() == 3
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchEngines_MissingDirectory(t *testing.T) {
	_, err := watchEngines(context.Background(), languageStore{}, map[string]string{"/nonexistent/dir/tm.tsv": "tm"})

	assert.Error(t, err)
}
