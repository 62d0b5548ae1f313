// Package sqlite provides the SQLite-backed segment repository of an open
// bilingual document.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds the files, units,
// segments, matches, terms and notes of exactly one document.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. A database holding segment tables without migration
// records comes from an older layout and is refused with domain.ErrLegacyStore.
// A finished bulk load is marked in store_meta; rows without the mark come
// from an interrupted load.
//
// # Encoding
//
// Inline content is stored as XLIFF element text. Inline-tag tables are stored
// as JSON and compressed with zstd once they grow past a few kilobytes.
//
// # Data Location
//
// The CLI keeps the database at .swordfish/<document>/segments.db next to the
// document unless --data-dir says otherwise.
//
// # Thread Safety
//
// Readers may run concurrently. Writers are expected to be serialized by the
// owning segment store; SQLite in WAL mode guards the file itself.
package sqlite
