package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func TestUpdate_WritesTargets(t *testing.T) {
	env := setupTestServices(t)
	_, err := execute(t, "save", env.doc, "f2/u4/s1", "Cierre la ventana.", "--confirm")
	require.NoError(t, err)

	out, err := execute(t, "update", env.doc)

	require.NoError(t, err)
	assert.Contains(t, out, "Updated")
	data, err := os.ReadFile(env.doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cierre la ventana.")
}

func TestExport_WritesCopy(t *testing.T) {
	env := setupTestServices(t)
	target := filepath.Join(t.TempDir(), "copy.xlf")

	out, err := execute(t, "export", env.doc, target)

	require.NoError(t, err)
	assert.Contains(t, out, "Exported "+target)
	assert.FileExists(t, target)
}

func TestExportTranslations_UsesMerger(t *testing.T) {
	env := setupTestServices(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "export-translations", env.doc, dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Exported translations to "+dir)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, env.merger.merged)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestExportTranslations_NoMerger(t *testing.T) {
	env := setupTestServices(t)
	merger = nil

	_, err := execute(t, "export-translations", env.doc, t.TempDir())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
