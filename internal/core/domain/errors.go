package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Operations returning it have not changed any state.
	ErrInvalidInput = errors.New("invalid input")

	// Structural Edit Errors.

	// ErrStructuralEdit indicates a split or merge that cannot be applied.
	ErrStructuralEdit = errors.New("illegal structural edit")

	// ErrSplitInsideMarkup indicates a split offset that falls inside
	// an inline marked run instead of on a run boundary.
	ErrSplitInsideMarkup = errors.New("split offset inside inline markup")

	// Store Errors.

	// ErrLegacyStore indicates an older, incompatible store layout was found
	// next to the document. The caller must back it up or migrate it; the
	// store never reinterprets it.
	ErrLegacyStore = errors.New("incompatible legacy store layout, migrate or back up before opening")

	// ErrStoreClosed indicates an operation on a closed segment store.
	ErrStoreClosed = errors.New("segment store closed")

	// ErrEngineUnavailable indicates a memory or glossary that is not open.
	ErrEngineUnavailable = errors.New("translation engine unavailable")
)
