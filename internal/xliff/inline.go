package xliff

import (
	"fmt"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// pairedElements are inline elements that enclose content.
var pairedElements = map[string]bool{"pc": true, "mrk": true}

// Flatten converts the children of an inline container such as
// <source> or <target> into a flat run sequence.
func Flatten(container *Node) domain.Content {
	if container == nil {
		return nil
	}
	var out domain.Content
	flattenInto(container.Children, &out)
	return out.Normalize()
}

func flattenInto(children []*Node, out *domain.Content) {
	for _, c := range children {
		switch c.Kind {
		case TextNode:
			*out = append(*out, domain.Text(c.Text))
		case ElementNode:
			attrs := append([]domain.Attr(nil), c.Attrs...)
			id := c.Attr("id")
			if pairedElements[c.Name] || len(c.Children) > 0 {
				*out = append(*out, domain.Run{Kind: domain.OpenTag, Name: c.Name, ID: id, Attrs: attrs})
				flattenInto(c.Children, out)
				*out = append(*out, domain.Run{Kind: domain.CloseTag, Name: c.Name, ID: id, Attrs: append([]domain.Attr(nil), attrs...)})
				continue
			}
			*out = append(*out, domain.Run{Kind: domain.StandaloneTag, Name: c.Name, ID: id, Attrs: attrs})
		}
	}
}

// Build creates an element named name holding the content. Open and
// close runs are paired into nested elements; a close run without a
// matching open run is dropped and unclosed elements end with the content.
func Build(name string, content domain.Content, attrs ...domain.Attr) *Node {
	root := NewElement(name, attrs...)
	stack := []*Node{root}
	ids := []string{""}
	for _, r := range content {
		parent := stack[len(stack)-1]
		switch r.Kind {
		case domain.TextRun:
			if r.Text == "" {
				continue
			}
			if last := len(parent.Children) - 1; last >= 0 && parent.Children[last].Kind == TextNode {
				parent.Children[last].Text += r.Text
				continue
			}
			parent.Append(NewText(r.Text))
		case domain.StandaloneTag:
			parent.Append(NewElement(r.Name, tagAttrs(r)...))
		case domain.OpenTag:
			el := NewElement(r.Name, tagAttrs(r)...)
			parent.Append(el)
			stack = append(stack, el)
			ids = append(ids, r.Name+"\x00"+r.ID)
		case domain.CloseTag:
			for i := len(stack) - 1; i > 0; i-- {
				if ids[i] == r.Name+"\x00"+r.ID {
					stack = stack[:i]
					ids = ids[:i]
					break
				}
			}
		}
	}
	return root
}

// tagAttrs copies the attributes of a tag run. A run with an id but no
// id attribute gets one first.
func tagAttrs(r domain.Run) []domain.Attr {
	attrs := make([]domain.Attr, 0, len(r.Attrs)+1)
	if r.ID != "" && r.Attr("id") == "" {
		attrs = append(attrs, domain.Attr{Name: "id", Value: r.ID})
	}
	return append(attrs, r.Attrs...)
}

// ContentXML serializes content inside an element named name.
func ContentXML(name string, content domain.Content, attrs ...domain.Attr) string {
	return Build(name, content, attrs...).String()
}

// ParseContent parses a serialized container element back into runs.
// The empty string is empty content.
func ParseContent(s string) (domain.Content, error) {
	if s == "" {
		return nil, nil
	}
	el, err := ParseElement(s)
	if err != nil {
		return nil, fmt.Errorf("parsing inline content: %w", err)
	}
	return Flatten(el), nil
}

// TagLiteral returns the verbatim content of an inline code, resolved
// through the unit's original data when the tag refers to it.
func TagLiteral(r domain.Run, data map[string]string) string {
	ref := ""
	switch r.Kind {
	case domain.OpenTag:
		ref = r.Attr("dataRefStart")
	case domain.CloseTag:
		ref = r.Attr("dataRefEnd")
	case domain.StandaloneTag:
		ref = r.Attr("dataRef")
	}
	if ref == "" && r.Kind != domain.CloseTag {
		ref = r.Attr("dataRef")
	}
	if v, ok := data[ref]; ok && ref != "" {
		return v
	}
	switch r.Kind {
	case domain.OpenTag, domain.StandaloneTag:
		return NewElement(r.Name, r.Attrs...).String()
	case domain.CloseTag:
		return "</" + r.Name + ">"
	}
	return ""
}

// TagDictionary maps every tag id of the content to its verbatim content.
func TagDictionary(content domain.Content, data map[string]string) map[string]string {
	dict := make(map[string]string)
	for _, r := range content {
		if !r.IsTag() || r.ID == "" {
			continue
		}
		key := r.ID
		if r.Kind == domain.CloseTag {
			key = r.ID + "/"
		}
		dict[key] = TagLiteral(r, data)
	}
	return dict
}
