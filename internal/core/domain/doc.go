// Package domain defines the core entities of the Swordfish segment store.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - File, Unit, Segment: the materialized bilingual document
//   - Content, Run: inline content as a flat sequence of text and tag runs
//   - Match, Term, Note: annotations attached to a segment
//   - StoreSettings, TaskStatus, Statistics: store behaviour and reporting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
