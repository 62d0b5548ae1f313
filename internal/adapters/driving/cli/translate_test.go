package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func TestTMTranslate_SingleSegment(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "tm-translate", env.doc, "--memory", env.memory, "--key", "f2/u4/s1")

	require.NoError(t, err)
	assert.Contains(t, out, "[100%] Cierre la ventana.")

	out, err = execute(t, "matches", env.doc, "f2/u4/s1")
	require.NoError(t, err)
	assert.Contains(t, out, "project")
}

func TestTMTranslate_AllRunsAsTask(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "tm-translate", env.doc, "--memory", env.memory)

	require.NoError(t, err)
	assert.Contains(t, out, "tm-translate completed")

	rows := queryRows(t, env.doc, "--target", "--filter", "Cierre")
	require.Len(t, rows, 1)
	assert.Equal(t, "u4", rows[0].Unit)
}

func TestTMTranslate_RequiresMemory(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "tm-translate", env.doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestTMTranslate_SimilarityRange(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "tm-translate", env.doc, "--memory", env.memory, "--similarity", "101")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTMTranslate_MissingMemoryFile(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "tm-translate", env.doc, "--memory", env.memory+".missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading memory")
}

func TestAssemble_AllRunsAsTask(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "assemble", env.doc, "--memory", env.memory, "--glossary", env.glossary)

	require.NoError(t, err)
	assert.Contains(t, out, "assemble completed")
}

func TestAssemble_RequiresGlossary(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "assemble", env.doc, "--memory", env.memory)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "glossary")
}

func TestAssemble_SingleSegment(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "assemble", env.doc, "--memory", env.memory, "--glossary", env.glossary, "--key", "f2/u4/s1")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
