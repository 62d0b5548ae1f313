package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestExtractSegmentKey(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want domain.SegmentKey
		ok   bool
	}{
		{"valid", "swordfish://segments/f1/u1/s1", domain.SegmentKey{File: "f1", Unit: "u1", Segment: "s1"}, true},
		{"escaped parts", "swordfish://segments/f%2F1/u%201/s1", domain.SegmentKey{File: "f/1", Unit: "u 1", Segment: "s1"}, true},
		{"invalid prefix", "file://segments/f1/u1/s1", domain.SegmentKey{}, false},
		{"too few parts", "swordfish://segments/f1/u1", domain.SegmentKey{}, false},
		{"empty part", "swordfish://segments/f1//s1", domain.SegmentKey{}, false},
		{"empty URI", "", domain.SegmentKey{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractSegmentKey(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_handleStatisticsResource(t *testing.T) {
	server := newTestServer(t, &mockSegmentService{stats: &domain.Statistics{Segments: 2, Confirmed: 1}}, nil)

	result, err := server.handleStatisticsResource(context.Background(), readRequest("swordfish://statistics"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var stats StatisticsOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &stats))
	assert.Equal(t, 2, stats.Segments)
	assert.Equal(t, 1, stats.Confirmed)
}

func TestServer_handleTasksResource(t *testing.T) {
	t.Run("without task service", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{}, nil)

		result, err := server.handleTasksResource(context.Background(), readRequest("swordfish://tasks"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists tickets", func(t *testing.T) {
		tasks := &mockTaskService{tickets: []domain.TaskStatus{{ID: "t1", Name: "tm_translate_all", State: domain.TaskRunning, Progress: 40}}}
		server := newTestServer(t, &mockSegmentService{}, tasks)

		result, err := server.handleTasksResource(context.Background(), readRequest("swordfish://tasks"))
		require.NoError(t, err)

		var tickets []TaskOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &tickets))
		require.Len(t, tickets, 1)
		assert.Equal(t, "running", tickets[0].State)
		assert.Equal(t, float64(40), tickets[0].Progress)
	})
}

func TestServer_handleSegmentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns segment with notes", func(t *testing.T) {
		segments := &mockSegmentService{
			segment: &domain.Segment{
				SegmentKey: domain.SegmentKey{File: "f1", Unit: "u1", Segment: "s1"},
				State:      domain.StateTranslated,
				SourceText: "Copy 30 files.",
				TargetText: "Copie 30 archivos.",
			},
			notes: []domain.Note{{ID: 1, Text: "check plural"}},
		}
		server := newTestServer(t, segments, nil)

		result, err := server.handleSegmentResource(ctx, readRequest("swordfish://segments/f1/u1/s1"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"target": "Copie 30 archivos."`)
		assert.Contains(t, result.Contents[0].Text, "check plural")
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{}, nil)

		_, err := server.handleSegmentResource(ctx, readRequest("swordfish://segments/f1"))
		require.Error(t, err)
	})

	t.Run("unknown segment is not found", func(t *testing.T) {
		server := newTestServer(t, &mockSegmentService{err: domain.ErrNotFound}, nil)

		_, err := server.handleSegmentResource(ctx, readRequest("swordfish://segments/f1/u9/s1"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
