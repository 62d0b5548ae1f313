// Package memory provides an in-process translation memory and glossary.
//
// Engines keep their units in memory only. They back the command line tools
// when no external memory server is configured, and the segment store tests.
package memory
