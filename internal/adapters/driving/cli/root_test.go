package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.SegmentKey
		wantErr bool
	}{
		{name: "valid", input: "f1/u1/s1", want: domain.SegmentKey{File: "f1", Unit: "u1", Segment: "s1"}},
		{name: "two parts", input: "f1/u1", wantErr: true},
		{name: "four parts", input: "f1/u1/s1/x", wantErr: true},
		{name: "empty part", input: "f1//s1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKey(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDataDir(t *testing.T) {
	dir := filepath.Join("work", "docs")
	got := defaultDataDir(filepath.Join(dir, "manual.xlf"))
	assert.Equal(t, filepath.Join(dir, ".swordfish", "manual"), got)
}

func TestEngineID(t *testing.T) {
	assert.Equal(t, "project", engineID(filepath.Join("tm", "project.tsv")))
	assert.Equal(t, "terms", engineID("terms"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"stats", "query", "save", "source", "split", "merge", "lock", "matches",
		"notes", "terms", "confirm-all", "unconfirm-all", "remove-translations",
		"copy-sources", "lock-duplicates", "unlock-all", "replace", "check",
		"fix-spaces", "tm-translate", "assemble", "update", "export",
		"export-translations", "settings", "mcp", "edit", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestWithStore_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, err := execute(t, "stats", "missing.xlf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment store not configured")
}

func TestWithStore_MissingDocument(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute(t, "stats", filepath.Join(filepath.Dir(env.doc), "other.xlf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening")
}

func TestWithStore_DataDirFlag(t *testing.T) {
	env := setupTestServices(t)
	dir := filepath.Join(t.TempDir(), "store")

	_, err := execute(t, "stats", env.doc, "--data-dir", dir)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "segments.db"))
}

func TestLoadEngines_GlossaryNameClash(t *testing.T) {
	env := setupTestServices(t)
	resetFlags(rootCmd)
	glossary := filepath.Join(t.TempDir(), "project.tsv")
	require.NoError(t, writeFile(glossary, glossaryPairs))

	var memory, gls string
	err := withStore(rootCmd, env.doc, func(_ context.Context, store driving.SegmentService) error {
		var err error
		memory, gls, err = loadEngines(store, env.memory, glossary)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, "project", memory)
	assert.Equal(t, "project-glossary", gls)
	_, err = env.engines.Get("project-glossary")
	assert.NoError(t, err)
}

func TestLoadEngines_NotConfigured(t *testing.T) {
	_, _, err := loadEngines(nil, "", "")
	assert.NoError(t, err, "nothing to load")

	SetServices(Services{})
	_, _, err = loadEngines(nil, "a.tsv", "")
	assert.Error(t, err)
}
