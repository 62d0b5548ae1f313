// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SegmentRepository: the six-table store of one open document
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be absent - the operations that need them fail with
// domain.ErrEngineUnavailable:
//
//   - TranslationEngine: memories and glossaries, looked up through an
//     EngineRegistry
//   - Merger: rebuilds original-format files from translated documents
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
