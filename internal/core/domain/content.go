package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// RunKind identifies the kind of an inline run.
type RunKind int

// Inline run kinds.
const (
	// TextRun is a span of plain text.
	TextRun RunKind = iota

	// OpenTag starts a paired inline code (pc, mrk).
	OpenTag

	// CloseTag ends the paired inline code opened with the same name and ID.
	CloseTag

	// StandaloneTag is a self-contained inline code (ph, sc, ec, sm, em, cp).
	StandaloneTag
)

// DummyTag is the placeholder character standing in for a tag when
// content is compared as text.
const DummyTag = '\uFFFC'

// Attr is an XML attribute, kept in document order.
type Attr struct {
	Name  string
	Value string
}

// Run is one element of inline content.
type Run struct {
	// Kind is the run kind.
	Kind RunKind

	// Text is the text of a TextRun.
	Text string

	// Name is the inline element name (ph, pc, mrk...).
	Name string

	// ID is the inline code id. For a CloseTag it is the id of its OpenTag.
	ID string

	// Attrs holds the element attributes. A CloseTag repeats the
	// attributes of its OpenTag.
	Attrs []Attr
}

// Text creates a text run.
func Text(s string) Run {
	return Run{Kind: TextRun, Text: s}
}

// IsTag returns true for every non-text run.
func (r Run) IsTag() bool {
	return r.Kind != TextRun
}

// Attr returns the value of the named attribute.
func (r Run) Attr(name string) string {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// SetAttr replaces or appends an attribute.
func (r *Run) SetAttr(name, value string) {
	for i := range r.Attrs {
		if r.Attrs[i].Name == name {
			r.Attrs[i].Value = value
			return
		}
	}
	r.Attrs = append(r.Attrs, Attr{Name: name, Value: value})
}

// Key identifies a tag within its content: kind, element name and id.
// Source and target tags that refer to the same inline code share a key.
func (r Run) Key() string {
	var prefix string
	switch r.Kind {
	case OpenTag:
		prefix = "o"
	case CloseTag:
		prefix = "c"
	case StandaloneTag:
		prefix = "s"
	default:
		return ""
	}
	return prefix + ":" + r.Name + ":" + r.ID
}

// Signature is the key plus every attribute; two tags with the same key
// and different signatures point to different inline codes.
func (r Run) Signature() string {
	var b strings.Builder
	b.WriteString(r.Key())
	for _, a := range r.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	return b.String()
}

// Content is inline content as a flat sequence of runs.
type Content []Run

// PlainText returns the text projection of the content. Code points
// escaped with cp elements are included; every other tag is dropped.
func (c Content) PlainText() string {
	var b strings.Builder
	for _, r := range c {
		switch {
		case r.Kind == TextRun:
			b.WriteString(r.Text)
		case r.Kind == StandaloneTag && r.Name == "cp":
			if v, err := strconv.ParseInt(r.Attr("hex"), 16, 32); err == nil {
				b.WriteRune(rune(v))
			}
		}
	}
	return b.String()
}

// DummyText returns the plain text with every tag replaced by DummyTag.
func (c Content) DummyText() string {
	var b strings.Builder
	for _, r := range c {
		if r.Kind == TextRun {
			b.WriteString(r.Text)
			continue
		}
		b.WriteRune(DummyTag)
	}
	return b.String()
}

// Tags returns the tag runs in order.
func (c Content) Tags() []Run {
	var tags []Run
	for _, r := range c {
		if r.IsTag() {
			tags = append(tags, r)
		}
	}
	return tags
}

// TagCount returns the number of inline codes. A pair counts once.
func (c Content) TagCount() int {
	n := 0
	for _, r := range c {
		if r.Kind == OpenTag || r.Kind == StandaloneTag {
			n++
		}
	}
	return n
}

// IsEmpty returns true when the content has no text and no tags.
func (c Content) IsEmpty() bool {
	for _, r := range c {
		if r.IsTag() || r.Text != "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for i, r := range c {
		out[i] = r
		if r.Attrs != nil {
			out[i].Attrs = append([]Attr(nil), r.Attrs...)
		}
	}
	return out
}

// Normalize merges adjacent text runs and drops empty ones.
func (c Content) Normalize() Content {
	out := make(Content, 0, len(c))
	for _, r := range c {
		if r.Kind == TextRun {
			if r.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Kind == TextRun {
				out[n-1].Text += r.Text
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Equal reports whether two contents have the same runs.
func (c Content) Equal(other Content) bool {
	a, b := c.Normalize(), other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text || a[i].Signature() != b[i].Signature() {
			return false
		}
	}
	return true
}

// LeadingSpace returns the whitespace prefix of the plain text.
func LeadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
}

// TrailingSpace returns the whitespace suffix of the plain text.
func TrailingSpace(s string) string {
	return s[len(strings.TrimRightFunc(s, unicode.IsSpace)):]
}
