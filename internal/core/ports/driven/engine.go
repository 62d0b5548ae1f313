package driven

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// TranslationEngine is a translation memory or glossary.
type TranslationEngine interface {
	// Name identifies the engine; it is the origin of its matches.
	Name() string

	// SearchTranslation returns matches for text at or above similarity,
	// best first.
	SearchTranslation(ctx context.Context, text, srcLang, tgtLang string, similarity int, caseSensitive bool) ([]domain.Match, error)

	// SearchExact returns the matches whose source equals text.
	SearchExact(ctx context.Context, text, srcLang, tgtLang string) ([]domain.Match, error)

	// SearchTerm returns glossary entries for term at or above similarity.
	SearchTerm(ctx context.Context, term, srcLang, tgtLang string, similarity int, caseSensitive bool) ([]domain.Term, error)

	// StoreUnit adds or replaces a translation unit.
	StoreUnit(ctx context.Context, tu *domain.TranslationUnit) error

	// Commit makes stored units durable.
	Commit(ctx context.Context) error

	// BatchTranslate searches every request at once and returns the
	// matches per request key, best first.
	BatchTranslate(ctx context.Context, reqs []domain.TranslationRequest, srcLang, tgtLang string, similarity int) (map[domain.SegmentKey][]domain.Match, error)

	// Close releases the engine.
	Close() error
}

// EngineRegistry holds the engines open in the process. Engines are
// opened and closed explicitly; the registry owns them in between.
type EngineRegistry interface {
	// Register adds an open engine under id.
	Register(id string, engine TranslationEngine) error

	// Get returns the engine registered under id, or
	// domain.ErrEngineUnavailable.
	Get(id string) (TranslationEngine, error)

	// Close closes and removes the engine registered under id.
	Close(id string) error

	// CloseAll closes every engine.
	CloseAll() error
}

// Merger rebuilds an original-format file from a translated single-file
// document.
type Merger interface {
	Merge(ctx context.Context, xliffPath, outputPath string) error
}
