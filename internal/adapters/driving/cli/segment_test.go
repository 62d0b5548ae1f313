package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func queryRows(t *testing.T, args ...string) []domain.SegmentRow {
	t.Helper()
	out, err := execute(t, append([]string{"query"}, append(args, "--json")...)...)
	require.NoError(t, err)
	start := strings.Index(out, "[")
	require.GreaterOrEqual(t, start, 0, out)
	var rows []domain.SegmentRow
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &rows))
	return rows
}

// ==================== stats / query ====================

func TestStats_JSON(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "stats", env.doc, "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"Segments": 5`)
	assert.Contains(t, out, `"Locked": 1`)
	assert.Contains(t, out, `"Translated": 1`)
}

func TestStats_Table(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "stats", env.doc)

	require.NoError(t, err)
	assert.Contains(t, out, "Statistics")
	assert.Contains(t, out, "Untranslated")
	assert.Contains(t, out, "Characters:")
}

func TestQuery_RendersPlaceholders(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "query", env.doc)

	require.NoError(t, err)
	assert.Contains(t, out, "Copy {1}30{2} files.")
	assert.Contains(t, out, "f1/u1/s1")
	assert.Contains(t, out, "(locked)")
}

func TestQuery_Filter(t *testing.T) {
	env := setupTestServices(t)

	rows := queryRows(t, env.doc, "--filter", "open")

	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[0].Unit)
	assert.Equal(t, "u2", rows[1].Unit)
}

func TestQuery_CountAndStart(t *testing.T) {
	env := setupTestServices(t)

	rows := queryRows(t, env.doc, "--start", "1", "--count", "2")

	require.Len(t, rows, 2)
	assert.Equal(t, "s2", rows[0].Segment)
}

func TestQuery_NoRows(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "query", env.doc, "--filter", "nothing like this")

	require.NoError(t, err)
	assert.Contains(t, out, "No segments found.")
}

func TestQuery_InvalidRegex(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "query", env.doc, "--filter", "(", "--regex")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ==================== segment edits ====================

func TestSave_ConfirmPropagates(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "save", env.doc, "f1/u1/s2", "Abra el archivo.", "--confirm")

	require.NoError(t, err)
	assert.Contains(t, out, "f1/u1/s2: final")

	rows := queryRows(t, env.doc, "--target", "--filter", "Abra")
	require.Len(t, rows, 2)
	assert.Equal(t, domain.StateTranslated, rows[1].State)
}

func TestSave_Unconfirmed(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "save", env.doc, "f2/u4/s1", "Cierre la ventana.")

	require.NoError(t, err)
	assert.Contains(t, out, "f2/u4/s1: translated")
}

func TestSave_PushesToMemory(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "save", env.doc, "f1/u1/s2", "Abra el archivo.", "--confirm", "--memory", env.memory)

	require.NoError(t, err)
	_, err = env.engines.Get("project")
	assert.NoError(t, err)
}

func TestSave_InvalidKey(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "save", env.doc, "f1/u1", "text")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSave_UnknownSegment(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "save", env.doc, "f1/u1/nope", "text")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_ReplacesSource(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "source", env.doc, "f2/u4/s1", "Close the door.")

	require.NoError(t, err)
	assert.Contains(t, out, "f2/u4/s1:")
	rows := queryRows(t, env.doc, "--filter", "door")
	assert.Len(t, rows, 1)
}

func TestSplitAndMerge(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "split", env.doc, "f1/u1/s2", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "New segment: f1/u1/s2-1")
	assert.Len(t, queryRows(t, env.doc, "--count", "0"), 6)

	out, err = execute(t, "merge", env.doc, "f1/u1/s2-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Merged into: f1/u1/s2")
	assert.Len(t, queryRows(t, env.doc, "--count", "0"), 5)
}

func TestSplit_OffsetMustBeNumber(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "split", env.doc, "f1/u1/s2", "five")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset must be a number")
}

func TestMerge_FirstSegmentFails(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "merge", env.doc, "f1/u1/s1")

	assert.ErrorIs(t, err, domain.ErrStructuralEdit)
}

func TestLock_AndUnlock(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "lock", env.doc, "f1/u1/s2")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked f1/u1/s2")

	out, err = execute(t, "lock", env.doc, "f1/u1/s2", "--unlock")
	require.NoError(t, err)
	assert.Contains(t, out, "Unlocked f1/u1/s2")
}

func TestMatches_None(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "matches", env.doc, "f2/u4/s1")

	require.NoError(t, err)
	assert.Contains(t, out, "No matches.")
}

func TestMatches_AfterPropagation(t *testing.T) {
	env := setupTestServices(t)
	_, err := execute(t, "save", env.doc, "f1/u1/s2", "Abra el archivo.", "--confirm")
	require.NoError(t, err)

	out, err := execute(t, "matches", env.doc, "f1/u2/s1")

	require.NoError(t, err)
	assert.Contains(t, out, "[100%] Self")
	assert.Contains(t, out, "Abra el archivo.")
}

func TestNotes_AddListRemove(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "notes", env.doc, "f1/u1/s2", "--add", "Check the menu label")
	require.NoError(t, err)
	assert.Contains(t, out, "Added note 1")
	assert.Contains(t, out, "1. Check the menu label")

	out, err = execute(t, "notes", env.doc, "f1/u1/s2", "--remove", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed note 1")
	assert.NotContains(t, out, "1. Check the menu label")
}

func TestTerms_WithGlossary(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "terms", env.doc, "f1/u1/s2", "--glossary", env.glossary)

	require.NoError(t, err)
	assert.Contains(t, out, "file = archivo (terms)")
}

func TestTerms_None(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "terms", env.doc, "f1/u1/s2")

	require.NoError(t, err)
	assert.Contains(t, out, "No terms.")
}
