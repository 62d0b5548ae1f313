package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func newTestServer(t *testing.T, segments *mockSegmentService, tasks *mockTaskService) *Server {
	t.Helper()
	ports := &Ports{Segments: segments}
	if tasks != nil {
		ports.Tasks = tasks
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("maps input onto the query", func(t *testing.T) {
		segments := &mockSegmentService{
			rows: []domain.SegmentRow{{File: "f1", Unit: "u1", Segment: "s1", Index: 1, Source: "Open the file."}},
		}
		server := newTestServer(t, segments, nil)

		input := QueryInput{Filter: "open", Target: true, Regex: true, States: []string{"initial", "final"}, Sort: "source", Start: 5}
		_, output, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "Open the file.", output.Rows[0].Source)

		q := segments.lastQuery
		assert.Equal(t, "open", q.Filter)
		assert.Equal(t, domain.FilterTarget, q.Language)
		assert.True(t, q.Regex)
		assert.Equal(t, []domain.State{domain.StateInitial, domain.StateFinal}, q.States)
		assert.Equal(t, domain.SortSource, q.Sort)
		assert.Equal(t, 5, q.Start)
		assert.Equal(t, defaultPageSize, q.Count)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{}, nil)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Count: 3})
		require.NoError(t, err)
		assert.NotNil(t, output.Rows)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{err: domain.ErrInvalidInput}, nil)

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Filter: "("})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSave(t *testing.T) {
	segments := &mockSegmentService{
		segment: &domain.Segment{
			SegmentKey: domain.SegmentKey{File: "f1", Unit: "u2", Segment: "s1"},
			State:      domain.StateFinal,
			Translate:  true,
			SourceText: "Open the file.",
			TargetText: "Abra el archivo.",
			Idx:        3,
		},
	}
	server := newTestServer(t, segments, nil)

	input := SaveInput{File: "f1", Unit: "u2", Segment: "s1", Target: "Abra el archivo.", Confirm: true, Memory: "mem"}
	_, output, err := server.handleSave(context.Background(), nil, input)

	require.NoError(t, err)
	assert.Equal(t, domain.SegmentKey{File: "f1", Unit: "u2", Segment: "s1"}, segments.lastSave.Key)
	assert.True(t, segments.lastSave.Confirm)
	assert.Equal(t, "mem", segments.lastSave.Memory)
	assert.Equal(t, "final", output.State)
	assert.Equal(t, "Abra el archivo.", output.Target)
	assert.Equal(t, 3, output.Index)
}

func TestServer_handleMatches(t *testing.T) {
	segments := &mockSegmentService{
		matches: []domain.Match{{
			Origin:     "mem",
			Type:       domain.MatchTM,
			Similarity: 92,
			Source:     domain.Content{domain.Text("Close the window.")},
			Target:     domain.Content{domain.Text("Cierre la ventana.")},
		}},
	}
	server := newTestServer(t, segments, nil)

	_, output, err := server.handleMatches(context.Background(), nil, SegmentRef{File: "f2", Unit: "u4", Segment: "s1"})
	require.NoError(t, err)
	require.Len(t, output.Matches, 1)
	assert.Equal(t, MatchOutput{Origin: "mem", Type: "tm", Similarity: 92, Source: "Close the window.", Target: "Cierre la ventana."}, output.Matches[0])
}

func TestServer_handleStatistics(t *testing.T) {
	segments := &mockSegmentService{stats: &domain.Statistics{Segments: 6, Locked: 1, Translated: 1, Untranslated: 4, Words: 14}}
	server := newTestServer(t, segments, nil)

	_, output, err := server.handleStatistics(context.Background(), nil, StatisticsInput{})
	require.NoError(t, err)
	assert.Equal(t, 6, output.Segments)
	assert.Equal(t, 1, output.Locked)
	assert.Equal(t, 4, output.Untranslated)
	assert.Equal(t, 14, output.Words)
}

func TestServer_handleTranslateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("submits a task and returns its ticket", func(t *testing.T) {
		segments := &mockSegmentService{}
		tasks := &mockTaskService{}
		server := newTestServer(t, segments, tasks)

		_, output, err := server.handleTranslateAll(ctx, nil, TranslateAllInput{Memory: "mem"})
		require.NoError(t, err)
		assert.Equal(t, "tm_translate_all", output.Name)
		assert.Equal(t, "completed", output.State)
		assert.Equal(t, float64(100), output.Progress)
		assert.Equal(t, "mem", segments.lastMemory)
		assert.Equal(t, defaultSimilarity, segments.lastSim)
	})

	t.Run("failure is reported in the ticket", func(t *testing.T) {
		segments := &mockSegmentService{err: errors.New("memory closed")}
		server := newTestServer(t, segments, &mockTaskService{})

		_, output, err := server.handleTranslateAll(ctx, nil, TranslateAllInput{Memory: "mem", Similarity: 80})
		require.NoError(t, err)
		assert.Equal(t, "failed", output.State)
		assert.Equal(t, "memory closed", output.Error)
		assert.Equal(t, 80, segments.lastSim)
	})

	t.Run("memory is required", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{}, &mockTaskService{})

		_, _, err := server.handleTranslateAll(ctx, nil, TranslateAllInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires a task service", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{}, nil)

		_, _, err := server.handleTranslateAll(ctx, nil, TranslateAllInput{Memory: "mem"})
		assert.ErrorIs(t, err, ErrMissingTaskService)
	})
}

func TestServer_handleAssembleAll(t *testing.T) {
	segments := &mockSegmentService{}
	server := newTestServer(t, segments, &mockTaskService{})

	_, output, err := server.handleAssembleAll(context.Background(), nil, AssembleAllInput{Memory: "mem", Glossary: "gls"})
	require.NoError(t, err)
	assert.Equal(t, "completed", output.State)
	assert.Equal(t, "mem", segments.lastMemory)
	assert.Equal(t, "gls", segments.lastGlossary)
}

func TestServer_handleTaskStatus(t *testing.T) {
	tasks := &mockTaskService{}
	server := newTestServer(t, &mockSegmentService{}, tasks)

	_, _, err := server.handleTaskStatus(context.Background(), nil, TaskInput{TaskID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, started, err := server.handleAssembleAll(context.Background(), nil, AssembleAllInput{Memory: "mem"})
	require.NoError(t, err)
	_, output, err := server.handleTaskStatus(context.Background(), nil, TaskInput{TaskID: started.TaskID})
	require.NoError(t, err)
	assert.Equal(t, started, output)
}
