package xliff

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// UnitRecords is everything the store materializes from one <unit>.
// Segments are in document order; Child, Idx, Words and Chars are left
// for the caller to fill in.
type UnitRecords struct {
	Unit     domain.Unit
	Segments []domain.Segment
	Matches  []domain.Match
	Terms    []domain.Term
	Notes    []domain.Note
}

// ReadPrefixes returns the module prefixes declared on the document,
// falling back to the conventional ones.
func (d *Document) ReadPrefixes() Prefixes {
	return Prefixes{
		Matches:  d.Prefix(NSMatches, "mtc"),
		Glossary: d.Prefix(NSGlossary, "gls"),
	}
}

// SegmentElements returns the <segment> and <ignorable> children of a unit.
func SegmentElements(unit *Node) []*Node {
	return unit.Elements("segment", "ignorable")
}

// SegmentID returns the id of a segment or ignorable element. Elements
// without one are numbered by their position among siblings of the same
// kind, starting at 1.
func SegmentID(unit, el *Node) string {
	if id := el.Attr("id"); id != "" {
		return id
	}
	n := 0
	for _, c := range SegmentElements(unit) {
		if c.Name == el.Name {
			n++
		}
		if c == el {
			break
		}
	}
	return strconv.Itoa(n)
}

// SegmentType returns the store type of a segment or ignorable element.
func SegmentType(el *Node) domain.SegmentType {
	if el.Name == "ignorable" {
		return domain.TypeIgnorable
	}
	return domain.TypeSegment
}

// FindSegment returns the <segment> element with the given id.
func FindSegment(unit *Node, id string) *Node {
	for _, el := range unit.Elements("segment") {
		if SegmentID(unit, el) == id {
			return el
		}
	}
	return nil
}

// OriginalData returns the data-reference table of a unit.
func OriginalData(unit *Node) map[string]string {
	data := make(map[string]string)
	if od := unit.Element("originalData"); od != nil {
		for _, d := range od.Elements("data") {
			data[d.Attr("id")] = d.InnerText()
		}
	}
	return data
}

func preserves(n *Node) bool {
	return n != nil && n.Attr("xml:space") == "preserve"
}

// ReadUnit materializes a unit element.
func ReadUnit(fileID string, unit *Node, p Prefixes) UnitRecords {
	unitID := unit.Attr("id")
	recs := UnitRecords{
		Unit: domain.Unit{File: fileID, ID: unitID, Data: OriginalData(unit)},
	}
	unitTranslate := unit.Attr("translate") != "no"

	var firstSegment string
	for _, el := range SegmentElements(unit) {
		source := Flatten(el.Element("source"))
		seg := domain.Segment{
			SegmentKey: domain.SegmentKey{File: fileID, Unit: unitID, Segment: SegmentID(unit, el)},
			Type:       SegmentType(el),
			Translate:  unitTranslate && el.Attr("subState") != LockedSubState,
			Space:      preserves(unit) || preserves(el) || preserves(el.Element("source")),
			Source:     source,
			SourceText: source.PlainText(),
			Tags:       source.TagCount(),
		}
		seg.SetTarget(Flatten(el.Element("target")), domain.ParseState(el.Attr("state")))
		if seg.Type == domain.TypeSegment && firstSegment == "" {
			firstSegment = seg.Segment
		}
		recs.Segments = append(recs.Segments, seg)
	}

	key := func(ref string) domain.SegmentKey {
		id := strings.TrimPrefix(ref, "#")
		if i := strings.LastIndex(id, "/"); i >= 0 {
			id = id[i+1:]
		}
		if id == "" {
			id = firstSegment
		}
		return domain.SegmentKey{File: fileID, Unit: unitID, Segment: id}
	}

	if matches := unit.Element(p.Matches + ":matches"); matches != nil {
		for _, m := range matches.Elements(p.Matches + ":match") {
			similarity, _ := strconv.ParseFloat(m.Attr("similarity"), 64)
			recs.Matches = append(recs.Matches, domain.Match{
				SegmentKey:   key(m.Attr("ref")),
				ID:           m.Attr("id"),
				Origin:       m.Attr("origin"),
				Type:         matchType(m.Attr("type")),
				Similarity:   int(similarity),
				Source:       Flatten(m.Element("source")),
				Target:       Flatten(m.Element("target")),
				OriginalData: OriginalData(m),
			})
		}
	}

	if glossary := unit.Element(p.Glossary + ":glossary"); glossary != nil {
		for _, e := range glossary.Elements(p.Glossary + ":glossEntry") {
			term := e.Element(p.Glossary + ":term")
			translation := e.Element(p.Glossary + ":translation")
			if term == nil || translation == nil {
				continue
			}
			recs.Terms = append(recs.Terms, domain.Term{
				SegmentKey: key(e.Attr("ref")),
				ID:         e.Attr("id"),
				Origin:     term.Attr("source"),
				Source:     term.InnerText(),
				Target:     translation.InnerText(),
			})
		}
	}

	if notes := unit.Element("notes"); notes != nil {
		for _, ref := range readNotes(unit, notes, firstSegment) {
			recs.Notes = append(recs.Notes, domain.Note{
				SegmentKey: domain.SegmentKey{File: fileID, Unit: unitID, Segment: ref.segment},
				ID:         ref.id,
				Text:       ref.el.InnerText(),
			})
		}
	}
	return recs
}

// noteRef is a <note> element and the note it reads as.
type noteRef struct {
	segment string
	id      int
	el      *Node
}

// readNotes maps the <note> elements of notes onto segments. A note id of
// the form "<segment>-<n>" names its segment; any other note belongs to
// firstSegment. Ids count from 1 per segment in document order.
func readNotes(unit, notes *Node, firstSegment string) []noteRef {
	var refs []noteRef
	next := make(map[string]int)
	for _, n := range notes.Elements("note") {
		segID := firstSegment
		if id := n.Attr("id"); id != "" {
			if i := strings.LastIndex(id, "-"); i > 0 && FindSegment(unit, id[:i]) != nil {
				segID = id[:i]
			}
		}
		next[segID]++
		refs = append(refs, noteRef{segment: segID, id: next[segID], el: n})
	}
	return refs
}

// writeNotes rewrites the <notes> block of unit from stored notes. A note
// that reads back with the same text keeps its element and attributes. An
// unchanged block is left untouched.
func writeNotes(unit *Node, stored []domain.Note, order map[string]int) {
	existing := unit.Element("notes")
	if len(stored) == 0 {
		if existing != nil {
			removeNode(unit, existing)
		}
		return
	}

	notes := append([]domain.Note(nil), stored...)
	sort.SliceStable(notes, func(i, j int) bool {
		if order[notes[i].Segment] != order[notes[j].Segment] {
			return order[notes[i].Segment] < order[notes[j].Segment]
		}
		return notes[i].ID < notes[j].ID
	})

	kept := make(map[string]*Node)
	el := NewElement("notes")
	var indent, closing *Node
	if existing != nil {
		for _, ref := range readNotes(unit, existing, firstSegmentID(unit)) {
			kept[ref.segment+"\x00"+strconv.Itoa(ref.id)] = ref.el
		}
		el.Attrs = append([]domain.Attr(nil), existing.Attrs...)
		indent, closing = layout(existing)
	}

	same := existing != nil && len(kept) == len(notes)
	for _, n := range notes {
		note, ok := kept[n.Segment+"\x00"+strconv.Itoa(n.ID)]
		if ok && note.InnerText() == n.Text {
			note = note.Clone()
		} else {
			same = false
			note = NewElement("note", domain.Attr{Name: "id", Value: n.Segment + "-" + strconv.Itoa(n.ID)})
			note.Append(NewText(n.Text))
		}
		if indent != nil {
			el.Append(indent.Clone())
		}
		el.Append(note)
	}
	if same {
		return
	}
	if closing != nil {
		el.Append(closing.Clone())
	}

	if existing != nil {
		unit.Children[unit.IndexOf(existing)] = el
		return
	}
	unit.Insert(firstElementIndex(unit), el)
}

// firstSegmentID returns the id of the first translatable segment of unit.
func firstSegmentID(unit *Node) string {
	for _, el := range SegmentElements(unit) {
		if SegmentType(el) == domain.TypeSegment {
			return SegmentID(unit, el)
		}
	}
	return ""
}

// layout returns the whitespace text before the first child of n and
// after the last one, or nil where there is none.
func layout(n *Node) (indent, closing *Node) {
	if len(n.Children) < 2 {
		return nil, nil
	}
	if first := n.Children[0]; first.Kind == TextNode && strings.TrimSpace(first.Text) == "" {
		indent = first
	}
	if last := n.Children[len(n.Children)-1]; last.Kind == TextNode && strings.TrimSpace(last.Text) == "" {
		closing = last
	}
	return indent, closing
}

func matchType(v string) domain.MatchType {
	switch v {
	case "mt":
		return domain.MatchMT
	case "am":
		return domain.MatchAM
	default:
		return domain.MatchTM
	}
}

// WriteUnit folds stored records back into a unit element: targets,
// states, locks, notes, matches and glossary hits. Segments missing from
// recs are left untouched.
func WriteUnit(unit *Node, recs UnitRecords, p Prefixes) {
	rows := make(map[string]domain.Segment, len(recs.Segments))
	for _, s := range recs.Segments {
		rows[string(s.Type)+"\x00"+s.Segment] = s
	}

	for _, el := range SegmentElements(unit) {
		row, ok := rows[string(SegmentType(el))+"\x00"+SegmentID(unit, el)]
		if !ok || row.Type != domain.TypeSegment {
			continue
		}
		writeSegment(el, row)
	}

	if len(recs.Unit.Data) > 0 && !sameData(OriginalData(unit), recs.Unit.Data) {
		replaceElement(unit, "originalData", dataElement("originalData", recs.Unit.Data))
	}

	order := make(map[string]int)
	for i, s := range recs.Segments {
		order[s.Segment] = i
	}

	removeElement(unit, p.Glossary+":glossary")
	removeElement(unit, p.Matches+":matches")
	writeNotes(unit, recs.Notes, order)

	if len(recs.Terms) > 0 {
		el := NewElement(p.Glossary + ":glossary")
		for _, t := range recs.Terms {
			entry := NewElement(p.Glossary+":glossEntry",
				domain.Attr{Name: "id", Value: t.ID},
				domain.Attr{Name: "ref", Value: "#" + t.Segment})
			term := NewElement(p.Glossary+":term", domain.Attr{Name: "source", Value: t.Origin})
			term.Append(NewText(t.Source))
			translation := NewElement(p.Glossary + ":translation")
			translation.Append(NewText(t.Target))
			entry.Append(term, translation)
			el.Append(entry)
		}
		unit.Insert(firstElementIndex(unit), el)
	}

	if len(recs.Matches) > 0 {
		matches := append([]domain.Match(nil), recs.Matches...)
		sort.SliceStable(matches, func(i, j int) bool {
			if order[matches[i].Segment] != order[matches[j].Segment] {
				return order[matches[i].Segment] < order[matches[j].Segment]
			}
			return matches[i].Similarity > matches[j].Similarity
		})
		el := NewElement(p.Matches + ":matches")
		for _, m := range matches {
			el.Append(matchElement(p.Matches, m))
		}
		unit.Insert(firstElementIndex(unit), el)
	}
}

func writeSegment(el *Node, row domain.Segment) {
	el.SetAttr("state", string(row.State))
	if row.Translate {
		if el.Attr("subState") == LockedSubState {
			el.RemoveAttr("subState")
		}
	} else {
		el.SetAttr("subState", LockedSubState)
	}

	if src := el.Element("source"); src != nil && !Flatten(src).Equal(row.Source) {
		el.Children[el.IndexOf(src)] = Build("source", row.Source, src.Attrs...)
	}

	old := el.Element("target")
	var attrs []domain.Attr
	if old != nil {
		attrs = old.Attrs
	}
	if row.Target.IsEmpty() {
		if old != nil {
			el.Remove(old)
		}
		return
	}
	target := Build("target", row.Target, attrs...)
	if old != nil {
		el.Children[el.IndexOf(old)] = target
		return
	}
	pos := len(el.Children)
	if source := el.Element("source"); source != nil {
		pos = el.IndexOf(source) + 1
	}
	el.Insert(pos, target)
}

func matchElement(prefix string, m domain.Match) *Node {
	el := NewElement(prefix+":match",
		domain.Attr{Name: "id", Value: m.ID},
		domain.Attr{Name: "ref", Value: "#" + m.Segment},
		domain.Attr{Name: "type", Value: string(m.Type)},
		domain.Attr{Name: "origin", Value: m.Origin},
		domain.Attr{Name: "similarity", Value: strconv.Itoa(m.Similarity) + ".0"})
	if len(m.OriginalData) > 0 {
		el.Append(dataElement("originalData", m.OriginalData))
	}
	el.Append(Build("source", m.Source), Build("target", m.Target))
	return el
}

func dataElement(name string, data map[string]string) *Node {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	el := NewElement(name)
	for _, id := range ids {
		d := NewElement("data", domain.Attr{Name: "id", Value: id})
		if data[id] != "" {
			d.Append(NewText(data[id]))
		}
		el.Append(d)
	}
	return el
}

func sameData(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// removeElement deletes a named child together with the whitespace that
// precedes it.
func removeElement(parent *Node, name string) {
	if el := parent.Element(name); el != nil {
		removeNode(parent, el)
	}
}

func replaceElement(parent *Node, name string, with *Node) {
	if old := parent.Element(name); old != nil {
		parent.Children[parent.IndexOf(old)] = with
		return
	}
	parent.Insert(firstElementIndex(parent), with)
}

func firstElementIndex(n *Node) int {
	for i, c := range n.Children {
		if c.Kind == ElementNode {
			return i
		}
	}
	return len(n.Children)
}
