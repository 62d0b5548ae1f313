// Package tui provides the interactive terminal interfaces: a segment
// editor over an open store and a progress view for background tasks.
package tui

import (
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// Ports aggregates the driving ports the editor needs.
type Ports struct {
	// Segments is the store of the open document.
	Segments driving.SegmentService

	// Memory is the memory id that receives confirmed segments, empty for none.
	Memory string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Segments == nil {
		return ErrMissingSegmentService
	}
	return nil
}
