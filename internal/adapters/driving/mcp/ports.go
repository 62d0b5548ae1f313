package mcp

import (
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server needs.
type Ports struct {
	// Segments is the store of the open document.
	Segments driving.SegmentService

	// Tasks runs bulk operations in the background. Optional; without it
	// the bulk tools fail.
	Tasks driving.TaskService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Segments == nil {
		return ErrMissingSegmentService
	}
	return nil
}
