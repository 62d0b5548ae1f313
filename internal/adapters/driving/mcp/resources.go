package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

const uriScheme = "swordfish://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "statistics",
		Name:        "statistics",
		Description: "Segment, word and character counts of the open document",
		MIMEType:    "application/json",
	}, s.handleStatisticsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tasks",
		Name:        "tasks",
		Description: "Progress tickets of background operations",
		MIMEType:    "application/json",
	}, s.handleTasksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "segments/{file}/{unit}/{segment}",
		Name:        "segment",
		Description: "One segment of the open document with its notes",
		MIMEType:    "application/json",
	}, s.handleSegmentResource)
}

func (s *Server) handleStatisticsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Segments.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing statistics: %w", err)
	}
	return jsonResource(req.Params.URI, statisticsOutput(stats))
}

func (s *Server) handleTasksResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	tickets := []TaskOutput{}
	if s.ports.Tasks != nil {
		for _, status := range s.ports.Tasks.List() {
			tickets = append(tickets, TaskOutput{
				TaskID:   status.ID,
				Name:     status.Name,
				State:    string(status.State),
				Progress: status.Progress,
				Error:    status.Error,
			})
		}
	}
	return jsonResource(req.Params.URI, tickets)
}

func (s *Server) handleSegmentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	key, ok := extractSegmentKey(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	seg, err := s.ports.Segments.Segment(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting segment: %w", err)
	}
	notes, err := s.ports.Segments.Notes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("getting notes: %w", err)
	}

	type segmentResource struct {
		SegmentOutput
		Notes []string `json:"notes"`
	}
	out := segmentResource{SegmentOutput: segmentOutput(seg), Notes: []string{}}
	for _, n := range notes {
		out.Notes = append(out.Notes, n.Text)
	}
	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSegmentKey parses swordfish://segments/{file}/{unit}/{segment}.
// Each part is path-unescaped.
func extractSegmentKey(uri string) (domain.SegmentKey, bool) {
	const prefix = uriScheme + "segments/"

	if !strings.HasPrefix(uri, prefix) {
		return domain.SegmentKey{}, false
	}
	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 {
		return domain.SegmentKey{}, false
	}
	for i, p := range parts {
		v, err := url.PathUnescape(p)
		if err != nil || v == "" {
			return domain.SegmentKey{}, false
		}
		parts[i] = v
	}
	return domain.SegmentKey{File: parts[0], Unit: parts[1], Segment: parts[2]}, true
}
