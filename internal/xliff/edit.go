package xliff

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// SplitContent divides content at a character offset of its plain text.
// Close tags that end exactly at the offset stay in the first part. The
// offset must fall strictly inside the text and outside every paired
// inline element.
func SplitContent(content domain.Content, offset int) (domain.Content, domain.Content, error) {
	total := utf8.RuneCountInString(content.PlainText())
	if offset <= 0 || offset >= total {
		return nil, nil, fmt.Errorf("%w: offset %d outside 1..%d", domain.ErrStructuralEdit, offset, total-1)
	}

	depth := 0
	pos := 0
	for i, r := range content {
		switch r.Kind {
		case domain.OpenTag:
			depth++
			continue
		case domain.CloseTag:
			depth--
			continue
		case domain.StandaloneTag:
			if r.Name == "cp" {
				pos++
			}
			if pos < offset {
				continue
			}
			return cutAt(content, i+1, depth)
		}

		n := utf8.RuneCountInString(r.Text)
		if pos+n < offset {
			pos += n
			continue
		}
		if pos+n == offset {
			j := i + 1
			for j < len(content) && content[j].Kind == domain.CloseTag {
				depth--
				j++
			}
			return cutAt(content, j, depth)
		}
		if depth > 0 {
			return nil, nil, domain.ErrSplitInsideMarkup
		}
		head, tail := splitRunes(r.Text, offset-pos)
		first := append(content[:i:i].Clone(), domain.Text(head))
		second := append(domain.Content{domain.Text(tail)}, content[i+1:].Clone()...)
		return first, second, nil
	}
	return nil, nil, fmt.Errorf("%w: offset %d not reached", domain.ErrStructuralEdit, offset)
}

func cutAt(content domain.Content, i, depth int) (domain.Content, domain.Content, error) {
	if depth > 0 {
		return nil, nil, domain.ErrSplitInsideMarkup
	}
	return content[:i:i].Clone(), content[i:].Clone(), nil
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for k := 0; k < n; k++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}

// SplitSegment splits a <segment> of unit at a plain-text offset of its
// source. The first part keeps the segment id, the second gets a new
// unique id. Both parts lose their target.
func SplitSegment(unit, seg *Node, offset int) (string, error) {
	source := seg.Element("source")
	if source == nil {
		return "", fmt.Errorf("%w: segment has no source", domain.ErrStructuralEdit)
	}
	first, second, err := SplitContent(Flatten(source), offset)
	if err != nil {
		return "", err
	}

	assignSegmentIDs(unit)
	id := seg.Attr("id")
	newID := uniqueSegmentID(unit, id)

	sibling := NewElement("segment", append([]domain.Attr(nil), seg.Attrs...)...)
	sibling.SetAttr("id", newID)
	sibling.SetAttr("state", string(domain.StateInitial))
	sibling.Append(Build("source", second, source.Attrs...))

	seg.SetAttr("state", string(domain.StateInitial))
	seg.Children = []*Node{Build("source", first, source.Attrs...)}

	unit.Insert(unit.IndexOf(seg)+1, sibling)
	return newID, nil
}

// assignSegmentIDs writes the positional id of every <segment> that has
// none, so that structural edits do not renumber its siblings.
func assignSegmentIDs(unit *Node) {
	ids := make(map[*Node]string)
	for _, el := range unit.Elements("segment") {
		if el.Attr("id") == "" {
			ids[el] = SegmentID(unit, el)
		}
	}
	for el, id := range ids {
		el.SetAttr("id", id)
	}
}

func uniqueSegmentID(unit *Node, base string) string {
	taken := make(map[string]bool)
	for _, el := range SegmentElements(unit) {
		taken[SegmentID(unit, el)] = true
	}
	for n := 1; ; n++ {
		id := base + "-" + strconv.Itoa(n)
		if !taken[id] {
			return id
		}
	}
}

// MergeSegment absorbs a <segment> into the preceding <segment> of the same
// unit, together with any ignorables between them. It returns the id of
// the segment that absorbed the content.
func MergeSegment(unit, seg *Node) (string, error) {
	children := SegmentElements(unit)
	pos := -1
	for i, c := range children {
		if c == seg {
			pos = i
		}
	}
	prev := -1
	for i := pos - 1; i >= 0; i-- {
		if children[i].Name == "segment" {
			prev = i
			break
		}
	}
	if pos < 0 || prev < 0 {
		return "", fmt.Errorf("%w: no preceding segment to merge into", domain.ErrStructuralEdit)
	}

	assignSegmentIDs(unit)
	into := children[prev]
	source := Flatten(into.Element("source"))
	target := Flatten(into.Element("target"))
	hasTarget := into.Element("target") != nil
	for _, c := range children[prev+1 : pos+1] {
		s := Flatten(c.Element("source"))
		source = append(source, s...)
		if t := c.Element("target"); t != nil {
			hasTarget = true
			target = append(target, Flatten(t)...)
		} else if c.Name == "ignorable" {
			target = append(target, s.Clone()...)
		}
	}

	sourceAttrs := []domain.Attr(nil)
	if s := into.Element("source"); s != nil {
		sourceAttrs = s.Attrs
	}
	targetAttrs := []domain.Attr(nil)
	if t := into.Element("target"); t != nil {
		targetAttrs = t.Attrs
	}

	into.Children = []*Node{Build("source", source.Normalize(), sourceAttrs...)}
	state := domain.StateInitial
	if hasTarget && target.PlainText() != "" {
		into.Append(Build("target", target.Normalize(), targetAttrs...))
		state = domain.StateTranslated
	}
	into.SetAttr("state", string(state))

	id := into.Attr("id")
	for _, c := range children[prev+1 : pos+1] {
		removeNode(unit, c)
	}
	return id, nil
}

// removeNode deletes a child and the whitespace that precedes it.
func removeNode(parent, child *Node) {
	i := parent.IndexOf(child)
	if i < 0 {
		return
	}
	start := i
	if i > 0 {
		if prev := parent.Children[i-1]; prev.Kind == TextNode && isBlank(prev.Text) {
			start = i - 1
		}
	}
	parent.Children = append(parent.Children[:start], parent.Children[i+1:]...)
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
