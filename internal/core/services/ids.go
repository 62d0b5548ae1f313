package services

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// matchID derives the id of a match from its origin and plain source text,
// so recomputing a match replaces the stored one. Collisions are not
// detected; two texts that collide share a row.
func matchID(origin, text string) string {
	return hashID(origin, text)
}

// termID derives the id of a glossary hit from its origin and source term.
func termID(origin, text string) string {
	return hashID(origin, text)
}

func hashID(origin, text string) string {
	d := xxhash.New()
	_, _ = d.WriteString(origin)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return strconv.FormatUint(d.Sum64(), 16)
}
