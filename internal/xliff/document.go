// Package xliff reads and writes XLIFF 2.0 documents.
//
// Documents are kept as a generic element tree so that everything the
// store does not model round-trips untouched. Inline content is exchanged
// with the core as a flat run sequence (domain.Content).
package xliff

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// Module namespaces.
const (
	NSMatches  = "urn:oasis:names:tc:xliff:matches:2.0"
	NSGlossary = "urn:oasis:names:tc:xliff:glossary:2.0"
	NSCore     = "urn:oasis:names:tc:xliff:document:2.0"
)

// LockedSubState marks a locked segment in the document.
const LockedSubState = "swordfish:locked"

// Load parses the document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if root := doc.Root(); root.Name != "xliff" {
		return nil, fmt.Errorf("reading %s: root element is %s, not xliff", filepath.Base(path), root.Name)
	}
	return doc, nil
}

// Save writes the document to path through a temporary file, so a failed
// write never truncates the previous version.
func (d *Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".xliff-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing document: %w", err)
	}
	return nil
}

// ReadLanguages returns the source and target languages of the document
// at path, reading no further than its root element.
func ReadLanguages(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		root, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root.Name.Local != "xliff" {
			return "", "", fmt.Errorf("reading %s: root element is %s, not xliff", filepath.Base(path), root.Name.Local)
		}
		var src, tgt string
		for _, a := range root.Attr {
			switch a.Name.Local {
			case "srcLang":
				src = a.Value
			case "trgLang":
				tgt = a.Value
			}
		}
		return src, tgt, nil
	}
}

// SrcLang returns the document source language.
func (d *Document) SrcLang() string {
	return d.Root().Attr("srcLang")
}

// TgtLang returns the document target language.
func (d *Document) TgtLang() string {
	return d.Root().Attr("trgLang")
}

// Files returns the <file> elements.
func (d *Document) Files() []*Node {
	return d.Root().Elements("file")
}

// File returns the <file> element with the given id.
func (d *Document) File(id string) *Node {
	for _, f := range d.Files() {
		if f.Attr("id") == id {
			return f
		}
	}
	return nil
}

// Units returns every <unit> below a file, including units inside groups,
// in document order.
func Units(file *Node) []*Node {
	var units []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Elements() {
			switch c.Name {
			case "unit":
				units = append(units, c)
			case "group":
				walk(c)
			}
		}
	}
	walk(file)
	return units
}

// Unit returns the unit with the given id inside a file.
func Unit(file *Node, id string) *Node {
	for _, u := range Units(file) {
		if u.Attr("id") == id {
			return u
		}
	}
	return nil
}

// Prefix returns the namespace prefix declared on the root element for
// uri, or fallback when none is declared.
func (d *Document) Prefix(uri, fallback string) string {
	for _, a := range d.Root().Attrs {
		if a.Value == uri && strings.HasPrefix(a.Name, "xmlns:") {
			return strings.TrimPrefix(a.Name, "xmlns:")
		}
	}
	return fallback
}

// EnsureNamespace declares uri on the root element under prefix unless
// it is already declared, and returns the prefix in use.
func (d *Document) EnsureNamespace(uri, prefix string) string {
	if p := d.Prefix(uri, ""); p != "" {
		return p
	}
	d.Root().SetAttr("xmlns:"+prefix, uri)
	return prefix
}

// Prefixes holds the module prefixes of a document.
type Prefixes struct {
	Matches  string
	Glossary string
}

// Prefixes returns the prefixes of the match and glossary modules,
// declaring them when absent.
func (d *Document) Prefixes() Prefixes {
	return Prefixes{
		Matches:  d.EnsureNamespace(NSMatches, "mtc"),
		Glossary: d.EnsureNamespace(NSGlossary, "gls"),
	}
}

// SplitByFile returns one document per <file>, each carrying the same
// declarations and root attributes as d.
func (d *Document) SplitByFile() []*Document {
	var docs []*Document
	root := d.Root()
	for _, file := range d.Files() {
		nodes := make([]*Node, 0, len(d.Nodes))
		for _, n := range d.Nodes {
			if n != root {
				nodes = append(nodes, n.Clone())
				continue
			}
			r := NewElement(root.Name, append([]domain.Attr(nil), root.Attrs...)...)
			r.Append(NewText("\n"), file.Clone(), NewText("\n"))
			nodes = append(nodes, r)
		}
		docs = append(docs, &Document{Nodes: nodes})
	}
	return docs
}

// Join merges single-file documents back into one, in order.
func Join(docs []*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("joining documents: nothing to join")
	}
	out := &Document{}
	first := docs[0]
	root := first.Root()
	joined := NewElement(root.Name, append([]domain.Attr(nil), root.Attrs...)...)
	for _, n := range first.Nodes {
		if n == root {
			out.Nodes = append(out.Nodes, joined)
			continue
		}
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, doc := range docs {
		for _, f := range doc.Files() {
			joined.Append(NewText("\n"), f.Clone())
		}
	}
	joined.Append(NewText("\n"))
	return out, nil
}

// Part is the share of a document that came from one original file.
type Part struct {
	Original string
	Doc      *Document
}

// SplitByOriginal returns one document per original file, in order of
// first appearance. Interleaved <file> elements with the same original
// are joined in document order. A file without an original is named by
// its id.
func (d *Document) SplitByOriginal() ([]Part, error) {
	var order []string
	groups := make(map[string][]*Document)
	for _, part := range d.SplitByFile() {
		file := part.Files()[0]
		name := file.Attr("original")
		if name == "" {
			name = file.Attr("id")
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], part)
	}

	parts := make([]Part, 0, len(order))
	for _, name := range order {
		joined, err := Join(groups[name])
		if err != nil {
			return nil, fmt.Errorf("joining %s: %w", name, err)
		}
		parts = append(parts, Part{Original: name, Doc: joined})
	}
	return parts, nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{Nodes: make([]*Node, len(d.Nodes))}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// Equal reports whether two documents serialize identically.
func (d *Document) Equal(other *Document) bool {
	return bytes.Equal(d.Bytes(), other.Bytes())
}
