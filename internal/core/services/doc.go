// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// SegmentStore is the store of one open document: materialization,
// queries, edits with propagation, structural edits, memory and glossary
// lookups, checks and export. TaskRunner runs its bulk operations in the
// background and EngineRegistry holds the memories and glossaries they use.
package services
