// Package mcp provides an MCP (Model Context Protocol) server adapter over
// the segment store, so assistants can query, translate and review an
// open bilingual document.
package mcp

import "errors"

// ErrMissingSegmentService is returned when the segment service is not provided.
var ErrMissingSegmentService = errors.New("mcp: segment service is required")

// ErrMissingTaskService is returned by the bulk tools when no task service
// was provided.
var ErrMissingTaskService = errors.New("mcp: task service is required for background operations")
