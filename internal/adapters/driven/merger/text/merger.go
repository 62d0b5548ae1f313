// Package text rebuilds plain text files from translated XLIFF documents.
//
// Each unit becomes one line: the target of every segment and ignorable,
// or its source when the target is empty. Inline codes are dropped.
package text

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/xliff"
)

// Ensure Merger implements the interface.
var _ driven.Merger = (*Merger)(nil)

// Merger writes the units of a single-file document as lines of text.
type Merger struct{}

// New creates a text merger.
func New() *Merger {
	return &Merger{}
}

// Merge reads the document at xliffPath and writes its text to outputPath.
func (m *Merger) Merge(ctx context.Context, xliffPath, outputPath string) error {
	doc, err := xliff.Load(xliffPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", xliffPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, file := range doc.Files() {
		for _, unit := range xliff.Units(file) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := w.WriteString(UnitText(unit) + "\n"); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return f.Close()
}

// UnitText joins the translated text of the segments of a unit, falling
// back to the source of segments without a target.
func UnitText(unit *xliff.Node) string {
	var b strings.Builder
	for _, el := range xliff.SegmentElements(unit) {
		text := xliff.Flatten(el.Element("target")).PlainText()
		if text == "" {
			text = xliff.Flatten(el.Element("source")).PlainText()
		}
		b.WriteString(text)
	}
	return b.String()
}
