package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// defaultPageSize bounds query_segments when no count is given.
const defaultPageSize = 50

// SegmentRef addresses one segment.
type SegmentRef struct {
	File    string `json:"file" jsonschema:"the file id"`
	Unit    string `json:"unit" jsonschema:"the unit id"`
	Segment string `json:"segment" jsonschema:"the segment id"`
}

func (r SegmentRef) key() domain.SegmentKey {
	return domain.SegmentKey{File: r.File, Unit: r.Unit, Segment: r.Segment}
}

// QueryInput is the input schema for the query_segments tool.
type QueryInput struct {
	Filter        string   `json:"filter,omitempty" jsonschema:"text to look for, empty for every segment"`
	Target        bool     `json:"target,omitempty" jsonschema:"filter on the target instead of the source"`
	Regex         bool     `json:"regex,omitempty" jsonschema:"interpret filter as a regular expression"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" jsonschema:"make the filter case sensitive"`
	States        []string `json:"states,omitempty" jsonschema:"restrict to these states: initial, translated, final"`
	Sort          string   `json:"sort,omitempty" jsonschema:"sort key: source, target or status"`
	Descending    bool     `json:"descending,omitempty" jsonschema:"reverse the sort"`
	Start         int      `json:"start,omitempty" jsonschema:"zero-based offset of the first row"`
	Count         int      `json:"count,omitempty" jsonschema:"page size (default 50)"`
}

// QueryOutput is the output schema for the query_segments tool.
type QueryOutput struct {
	Rows  []domain.SegmentRow `json:"rows"`
	Count int                 `json:"count"`
}

// SaveInput is the input schema for the save_segment tool.
type SaveInput struct {
	File    string `json:"file" jsonschema:"the file id"`
	Unit    string `json:"unit" jsonschema:"the unit id"`
	Segment string `json:"segment" jsonschema:"the segment id"`
	Target  string `json:"target" jsonschema:"target markup, inline tags as <img data-tag=\"n\"/> placeholders"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"mark the segment final and propagate it"`
	Memory  string `json:"memory,omitempty" jsonschema:"memory id that receives the confirmed unit"`
}

// SegmentOutput is a stored segment in plain text.
type SegmentOutput struct {
	File      string `json:"file"`
	Unit      string `json:"unit"`
	Segment   string `json:"segment"`
	Index     int    `json:"index"`
	State     string `json:"state"`
	Translate bool   `json:"translate"`
	Source    string `json:"source"`
	Target    string `json:"target"`
}

// MatchesOutput is the output schema for the get_matches tool.
type MatchesOutput struct {
	Matches []MatchOutput `json:"matches"`
}

// MatchOutput is one translation proposal in plain text.
type MatchOutput struct {
	Origin     string `json:"origin"`
	Type       string `json:"type"`
	Similarity int    `json:"similarity"`
	Source     string `json:"source"`
	Target     string `json:"target"`
}

// StatisticsInput is the empty input schema for the statistics tool.
type StatisticsInput struct{}

// StatisticsOutput is the output schema for the statistics tool.
type StatisticsOutput struct {
	Segments          int `json:"segments"`
	Locked            int `json:"locked"`
	Untranslated      int `json:"untranslated"`
	Translated        int `json:"translated"`
	Confirmed         int `json:"confirmed"`
	Words             int `json:"words"`
	Chars             int `json:"chars"`
	UntranslatedWords int `json:"untranslated_words"`
	TranslatedWords   int `json:"translated_words"`
	ConfirmedWords    int `json:"confirmed_words"`
}

// TranslateAllInput is the input schema for the tm_translate_all tool.
type TranslateAllInput struct {
	Memory     string `json:"memory" jsonschema:"memory id to search"`
	Similarity int    `json:"similarity,omitempty" jsonschema:"minimum similarity 0-100 (default 70)"`
}

// AssembleAllInput is the input schema for the assemble_matches_all tool.
type AssembleAllInput struct {
	Memory   string `json:"memory" jsonschema:"memory id used for fragments"`
	Glossary string `json:"glossary,omitempty" jsonschema:"glossary id used for single terms"`
}

// TaskInput is the input schema for the task_status tool.
type TaskInput struct {
	TaskID string `json:"task_id" jsonschema:"ticket id returned by a bulk tool"`
}

// TaskOutput is a progress ticket.
type TaskOutput struct {
	TaskID   string  `json:"task_id"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// defaultSimilarity is the tm_translate_all threshold when none is given.
const defaultSimilarity = 70

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_segments",
		Description: "List segments of the open document with filtering, sorting and paging",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_segment",
		Description: "Get one segment of the open document",
	}, s.handleGetSegment)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_segment",
		Description: "Store a translation, optionally confirming and propagating it",
	}, s.handleSave)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_matches",
		Description: "List the translation matches stored for a segment",
	}, s.handleMatches)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "statistics",
		Description: "Segment, word and character counts per state",
	}, s.handleStatistics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tm_translate_all",
		Description: "Start a background translation memory pass over every unconfirmed segment",
	}, s.handleTranslateAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assemble_matches_all",
		Description: "Start a background pass synthesizing matches from memory fragments and glossary terms",
	}, s.handleAssembleAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "task_status",
		Description: "Get the progress of a background task",
	}, s.handleTaskStatus)
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	count := input.Count
	if count <= 0 {
		count = defaultPageSize
	}

	q := domain.SegmentQuery{
		Start:         input.Start,
		Count:         count,
		Filter:        input.Filter,
		Language:      domain.FilterSource,
		CaseSensitive: input.CaseSensitive,
		Regex:         input.Regex,
		Sort:          domain.SortKey(input.Sort),
		Descending:    input.Descending,
	}
	if input.Target {
		q.Language = domain.FilterTarget
	}
	for _, st := range input.States {
		q.States = append(q.States, domain.State(st))
	}

	rows, err := s.ports.Segments.Query(ctx, q)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	if rows == nil {
		rows = []domain.SegmentRow{}
	}
	return nil, QueryOutput{Rows: rows, Count: len(rows)}, nil
}

func (s *Server) handleGetSegment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SegmentRef,
) (*mcp.CallToolResult, SegmentOutput, error) {
	seg, err := s.ports.Segments.Segment(ctx, input.key())
	if err != nil {
		return nil, SegmentOutput{}, err
	}
	return nil, segmentOutput(seg), nil
}

func (s *Server) handleSave(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SaveInput,
) (*mcp.CallToolResult, SegmentOutput, error) {
	seg, err := s.ports.Segments.SaveSegment(ctx, driving.SaveRequest{
		Key:     domain.SegmentKey{File: input.File, Unit: input.Unit, Segment: input.Segment},
		Target:  input.Target,
		Confirm: input.Confirm,
		Memory:  input.Memory,
	})
	if err != nil {
		return nil, SegmentOutput{}, err
	}
	return nil, segmentOutput(seg), nil
}

func (s *Server) handleMatches(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SegmentRef,
) (*mcp.CallToolResult, MatchesOutput, error) {
	matches, err := s.ports.Segments.Matches(ctx, input.key())
	if err != nil {
		return nil, MatchesOutput{}, err
	}

	output := MatchesOutput{Matches: make([]MatchOutput, len(matches))}
	for i := range matches {
		output.Matches[i] = MatchOutput{
			Origin:     matches[i].Origin,
			Type:       string(matches[i].Type),
			Similarity: matches[i].Similarity,
			Source:     matches[i].Source.PlainText(),
			Target:     matches[i].Target.PlainText(),
		}
	}
	return nil, output, nil
}

func (s *Server) handleStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatisticsInput,
) (*mcp.CallToolResult, StatisticsOutput, error) {
	stats, err := s.ports.Segments.Statistics(ctx)
	if err != nil {
		return nil, StatisticsOutput{}, err
	}
	return nil, statisticsOutput(stats), nil
}

func (s *Server) handleTranslateAll(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TranslateAllInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	if s.ports.Tasks == nil {
		return nil, TaskOutput{}, ErrMissingTaskService
	}
	if input.Memory == "" {
		return nil, TaskOutput{}, fmt.Errorf("memory is required: %w", domain.ErrInvalidInput)
	}
	similarity := input.Similarity
	if similarity <= 0 {
		similarity = defaultSimilarity
	}

	id := s.ports.Tasks.Submit("tm_translate_all", func(ctx context.Context, progress driving.ProgressFunc) error {
		return s.ports.Segments.TMTranslateAll(ctx, input.Memory, similarity, progress)
	})
	return s.ticket(id)
}

func (s *Server) handleAssembleAll(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AssembleAllInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	if s.ports.Tasks == nil {
		return nil, TaskOutput{}, ErrMissingTaskService
	}
	if input.Memory == "" {
		return nil, TaskOutput{}, fmt.Errorf("memory is required: %w", domain.ErrInvalidInput)
	}

	id := s.ports.Tasks.Submit("assemble_matches_all", func(ctx context.Context, progress driving.ProgressFunc) error {
		return s.ports.Segments.AssembleMatchesAll(ctx, input.Memory, input.Glossary, progress)
	})
	return s.ticket(id)
}

func (s *Server) handleTaskStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TaskInput,
) (*mcp.CallToolResult, TaskOutput, error) {
	if s.ports.Tasks == nil {
		return nil, TaskOutput{}, ErrMissingTaskService
	}
	return s.ticket(input.TaskID)
}

func (s *Server) ticket(id string) (*mcp.CallToolResult, TaskOutput, error) {
	status, err := s.ports.Tasks.Status(id)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, TaskOutput{
		TaskID:   status.ID,
		Name:     status.Name,
		State:    string(status.State),
		Progress: status.Progress,
		Error:    status.Error,
	}, nil
}

func segmentOutput(seg *domain.Segment) SegmentOutput {
	return SegmentOutput{
		File:      seg.File,
		Unit:      seg.Unit,
		Segment:   seg.Segment,
		Index:     seg.Idx,
		State:     string(seg.State),
		Translate: seg.Translate,
		Source:    seg.SourceText,
		Target:    seg.TargetText,
	}
}

func statisticsOutput(stats *domain.Statistics) StatisticsOutput {
	return StatisticsOutput{
		Segments:          stats.Segments,
		Locked:            stats.Locked,
		Untranslated:      stats.Untranslated,
		Translated:        stats.Translated,
		Confirmed:         stats.Confirmed,
		Words:             stats.Words,
		Chars:             stats.Chars,
		UntranslatedWords: stats.UntranslatedWords,
		TranslatedWords:   stats.TranslatedWords,
		ConfirmedWords:    stats.ConfirmedWords,
	}
}
