package xliff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

const sampleXLIFF = `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" xmlns:mtc="urn:oasis:names:tc:xliff:matches:2.0" version="2.0" srcLang="en" trgLang="es">
<file id="f1" original="a.txt">
<unit id="u1">
<originalData>
<data id="d1">&lt;b&gt;</data>
<data id="d2">&lt;/b&gt;</data>
</originalData>
<segment id="s1" state="translated">
<source>Copy <pc id="1" dataRefStart="d1" dataRefEnd="d2">3</pc> files.</source>
<target>Copie <pc id="1" dataRefStart="d1" dataRefEnd="d2">3</pc> archivos.</target>
</segment>
<ignorable>
<source> </source>
</ignorable>
<segment id="s2">
<source>Second<ph id="2"/> one.</source>
</segment>
</unit>
<group id="g1">
<unit id="u2" translate="no">
<segment>
<source xml:space="preserve">Locked  text</source>
</segment>
</unit>
</group>
</file>
<file id="f2" original="b.txt">
<unit id="u3">
<segment id="1"><source>Other file</source></segment>
</unit>
</file>
</xliff>
`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(sampleXLIFF))
	require.NoError(t, err)
	return doc
}

// ==================== Tree ====================

func TestParse_RoundTripsUnchanged(t *testing.T) {
	doc := parseSample(t)
	assert.Equal(t, sampleXLIFF, string(doc.Bytes()))
}

func TestParse_RejectsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<xliff><file></xliff>`))
	require.Error(t, err)

	_, err = Parse(strings.NewReader(`   `))
	require.Error(t, err)
}

func TestNode_AttrEditing(t *testing.T) {
	n := NewElement("segment", domain.Attr{Name: "id", Value: "1"})
	n.SetAttr("state", "final")
	n.SetAttr("id", "2")
	assert.Equal(t, `<segment id="2" state="final"/>`, n.String())

	n.RemoveAttr("state")
	_, ok := n.LookupAttr("state")
	assert.False(t, ok)
}

func TestNode_EscapesTextAndAttributes(t *testing.T) {
	n := NewElement("note", domain.Attr{Name: "title", Value: `a "b" <c>`})
	n.Append(NewText("x < y & z"))
	assert.Equal(t, `<note title="a &quot;b&quot; &lt;c&gt;">x &lt; y &amp; z</note>`, n.String())

	back, err := ParseElement(n.String())
	require.NoError(t, err)
	assert.Equal(t, `a "b" <c>`, back.Attr("title"))
	assert.Equal(t, "x < y & z", back.InnerText())
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.xlf")
	require.NoError(t, os.WriteFile(path, []byte(sampleXLIFF), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", doc.SrcLang())
	assert.Equal(t, "es", doc.TgtLang())

	out := filepath.Join(dir, "out.xlf")
	require.NoError(t, doc.Save(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, sampleXLIFF, string(data))
}

func TestLoad_RejectsOtherRoots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<html/>`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not xliff")
}

// ==================== Document ====================

func TestDocument_FilesAndUnits(t *testing.T) {
	doc := parseSample(t)
	files := doc.Files()
	require.Len(t, files, 2)

	units := Units(files[0])
	require.Len(t, units, 2)
	assert.Equal(t, "u1", units[0].Attr("id"))
	assert.Equal(t, "u2", units[1].Attr("id"), "units inside groups are found")

	assert.NotNil(t, Unit(doc.File("f2"), "u3"))
	assert.Nil(t, Unit(doc.File("f2"), "missing"))
}

func TestDocument_Prefixes(t *testing.T) {
	doc := parseSample(t)
	assert.Equal(t, "mtc", doc.ReadPrefixes().Matches)
	_, declared := doc.Root().LookupAttr("xmlns:gls")
	assert.False(t, declared, "reading prefixes does not declare them")

	p := doc.Prefixes()
	assert.Equal(t, "gls", p.Glossary)
	assert.Equal(t, NSGlossary, doc.Root().Attr("xmlns:gls"))
}

func TestDocument_SplitAndJoin(t *testing.T) {
	doc := parseSample(t)
	parts := doc.SplitByFile()
	require.Len(t, parts, 2)
	assert.Len(t, parts[0].Files(), 1)
	assert.Equal(t, "f2", parts[1].Files()[0].Attr("id"))
	assert.Equal(t, "es", parts[1].TgtLang())

	joined, err := Join(parts)
	require.NoError(t, err)
	require.Len(t, joined.Files(), 2)
	assert.Equal(t, "f1", joined.Files()[0].Attr("id"))

	_, err = Join(nil)
	require.Error(t, err)
}

func TestDocument_SplitByOriginalJoinsInterleavedFiles(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en" trgLang="es">
<file id="f1" original="a.txt"><unit id="u1"><segment><source>One</source></segment></unit></file>
<file id="f2" original="b.txt"><unit id="u2"><segment><source>Two</source></segment></unit></file>
<file id="f3" original="a.txt"><unit id="u3"><segment><source>Three</source></segment></unit></file>
<file id="f4"><unit id="u4"><segment><source>Four</source></segment></unit></file>
</xliff>`))
	require.NoError(t, err)

	parts, err := doc.SplitByOriginal()
	require.NoError(t, err)

	require.Len(t, parts, 3)
	assert.Equal(t, "a.txt", parts[0].Original)
	files := parts[0].Doc.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "f1", files[0].Attr("id"))
	assert.Equal(t, "f3", files[1].Attr("id"))
	assert.Equal(t, "b.txt", parts[1].Original)
	assert.Len(t, parts[1].Doc.Files(), 1)
	assert.Equal(t, "f4", parts[2].Original)
	assert.Equal(t, "es", parts[2].Doc.TgtLang())
}

// ==================== Inline content ====================

func TestFlatten_PairsAndStandalones(t *testing.T) {
	el, err := ParseElement(`<source>A <pc id="1">b <ph id="2"/></pc> c</source>`)
	require.NoError(t, err)

	content := Flatten(el)
	require.Len(t, content, 6)
	assert.Equal(t, domain.Text("A "), content[0])
	assert.Equal(t, domain.OpenTag, content[1].Kind)
	assert.Equal(t, "o:pc:1", content[1].Key())
	assert.Equal(t, domain.StandaloneTag, content[3].Kind)
	assert.Equal(t, "c:pc:1", content[4].Key())
	assert.Equal(t, "A b  c", content.PlainText())
	assert.Equal(t, 2, content.TagCount())
}

func TestBuild_InvertsFlatten(t *testing.T) {
	src := `<target>A <pc id="1" dataRefStart="d1">b <ph id="2"/></pc> c<mrk id="m1" type="term">x</mrk></target>`
	el, err := ParseElement(src)
	require.NoError(t, err)

	assert.Equal(t, src, Build("target", Flatten(el)).String())
	assert.Equal(t, src, ContentXML("target", Flatten(el)))
}

func TestBuild_WritesRunIDWithoutAttrs(t *testing.T) {
	content := domain.Content{
		domain.Text("a"),
		{Kind: domain.StandaloneTag, Name: "ph", ID: "2"},
		{Kind: domain.OpenTag, Name: "pc", ID: "3", Attrs: []domain.Attr{{Name: "dataRefStart", Value: "d1"}}},
		domain.Text("b"),
		{Kind: domain.CloseTag, Name: "pc", ID: "3"},
		{Kind: domain.StandaloneTag, Name: "ph", ID: "4", Attrs: []domain.Attr{{Name: "id", Value: "4"}}},
	}
	assert.Equal(t, `<target>a<ph id="2"/><pc id="3" dataRefStart="d1">b</pc><ph id="4"/></target>`, ContentXML("target", content))
}

func TestBuild_DropsUnmatchedClose(t *testing.T) {
	content := domain.Content{
		domain.Text("a"),
		{Kind: domain.CloseTag, Name: "pc", ID: "9"},
		domain.Text("b"),
	}
	assert.Equal(t, "<target>ab</target>", ContentXML("target", content))
}

func TestParseContent(t *testing.T) {
	content, err := ParseContent("")
	require.NoError(t, err)
	assert.Nil(t, content)

	content, err = ParseContent(`<source>x<ph id="1"/></source>`)
	require.NoError(t, err)
	assert.Len(t, content, 2)

	_, err = ParseContent(`<source>`)
	require.Error(t, err)
}

func TestTagLiteral_ResolvesOriginalData(t *testing.T) {
	el, err := ParseElement(`<source><pc id="1" dataRefStart="d1" dataRefEnd="d2">x</pc><ph id="2" dataRef="d3"/><ph id="3"/></source>`)
	require.NoError(t, err)
	content := Flatten(el)
	data := map[string]string{"d1": "<b>", "d2": "</b>", "d3": "{0}"}

	dict := TagDictionary(content, data)
	assert.Equal(t, "<b>", dict["1"])
	assert.Equal(t, "</b>", dict["1/"])
	assert.Equal(t, "{0}", dict["2"])
	assert.Equal(t, `<ph id="3"/>`, dict["3"])
}

// ==================== Units ====================

func TestReadUnit(t *testing.T) {
	doc := parseSample(t)
	p := doc.ReadPrefixes()
	file := doc.File("f1")

	recs := ReadUnit("f1", Unit(file, "u1"), p)
	assert.Equal(t, "<b>", recs.Unit.Data["d1"])
	require.Len(t, recs.Segments, 3)

	s1 := recs.Segments[0]
	assert.Equal(t, domain.TypeSegment, s1.Type)
	assert.Equal(t, domain.StateTranslated, s1.State)
	assert.Equal(t, "Copy 3 files.", s1.SourceText)
	assert.Equal(t, "Copie 3 archivos.", s1.TargetText)
	assert.Equal(t, 1, s1.Tags)
	assert.True(t, s1.Translate)

	ign := recs.Segments[1]
	assert.Equal(t, domain.TypeIgnorable, ign.Type)
	assert.Equal(t, "1", ign.Segment)

	s2 := recs.Segments[2]
	assert.Equal(t, domain.StateInitial, s2.State)
	assert.Empty(t, s2.TargetText)

	locked := ReadUnit("f1", Unit(file, "u2"), p)
	require.Len(t, locked.Segments, 1)
	assert.False(t, locked.Segments[0].Translate)
	assert.True(t, locked.Segments[0].Space)
	assert.Equal(t, "1", locked.Segments[0].Segment)
}

func TestWriteUnit_RoundTripsRecords(t *testing.T) {
	doc := parseSample(t)
	p := doc.Prefixes()
	unit := Unit(doc.File("f1"), "u1")
	recs := ReadUnit("f1", unit, p)

	s2 := &recs.Segments[2]
	s2.SetTarget(domain.Content{domain.Text("Segunda"), {Kind: domain.StandaloneTag, Name: "ph", ID: "2"}, domain.Text(" una.")}, domain.StateFinal)
	s2.Translate = false

	recs.Matches = []domain.Match{{
		SegmentKey: s2.SegmentKey,
		ID:         "abc",
		Origin:     "TM",
		Type:       domain.MatchTM,
		Similarity: 87,
		Source:     domain.Content{domain.Text("Second one.")},
		Target:     domain.Content{domain.Text("Segunda una.")},
	}}
	recs.Terms = []domain.Term{{SegmentKey: s2.SegmentKey, ID: "t1", Origin: "gloss", Source: "one", Target: "una"}}
	recs.Notes = []domain.Note{
		{SegmentKey: s2.SegmentKey, ID: 1, Text: "check"},
		{SegmentKey: recs.Segments[0].SegmentKey, ID: 1, Text: "first"},
	}

	WriteUnit(unit, recs, p)

	seg := FindSegment(unit, "s2")
	require.NotNil(t, seg)
	assert.Equal(t, "final", seg.Attr("state"))
	assert.Equal(t, LockedSubState, seg.Attr("subState"))
	assert.Equal(t, `<target>Segunda<ph id="2"/> una.</target>`, seg.Element("target").String())

	reparsed, err := Parse(strings.NewReader(string(doc.Bytes())))
	require.NoError(t, err)
	back := ReadUnit("f1", Unit(reparsed.File("f1"), "u1"), reparsed.ReadPrefixes())

	require.Len(t, back.Segments, 3)
	assert.Equal(t, "Segunda una.", back.Segments[2].TargetText)
	assert.False(t, back.Segments[2].Translate)

	require.Len(t, back.Matches, 1)
	assert.Equal(t, "s2", back.Matches[0].Segment)
	assert.Equal(t, 87, back.Matches[0].Similarity)
	assert.Equal(t, "Segunda una.", back.Matches[0].Target.PlainText())

	require.Len(t, back.Terms, 1)
	assert.Equal(t, "una", back.Terms[0].Target)

	require.Len(t, back.Notes, 2)
	assert.Equal(t, "s1", back.Notes[0].Segment, "notes follow segment order")
	assert.Equal(t, "s2", back.Notes[1].Segment)
	assert.Equal(t, "check", back.Notes[1].Text)
}

const notedUnit = `<unit id="u1">
  <notes>
    <note id="n1" category="review">Check the number</note>
  </notes>
  <segment id="s1" state="initial"><source>Copy 3 files.</source></segment>
  <segment id="s2" state="initial"><source>Done.</source></segment>
</unit>`

func TestWriteUnit_KeepsUnchangedNotes(t *testing.T) {
	unit, err := ParseElement(notedUnit)
	require.NoError(t, err)
	recs := ReadUnit("f1", unit, Prefixes{})
	require.Len(t, recs.Notes, 1)
	assert.Equal(t, "s1", recs.Notes[0].Segment)

	WriteUnit(unit, recs, Prefixes{})

	assert.Equal(t, notedUnit, unit.String())
}

func TestWriteUnit_AddedNoteKeepsExistingIDs(t *testing.T) {
	unit, err := ParseElement(notedUnit)
	require.NoError(t, err)
	recs := ReadUnit("f1", unit, Prefixes{})
	recs.Notes = append(recs.Notes, domain.Note{
		SegmentKey: domain.SegmentKey{File: "f1", Unit: "u1", Segment: "s2"},
		ID:         1,
		Text:       "Short",
	})

	WriteUnit(unit, recs, Prefixes{})

	notes := unit.Element("notes").String()
	assert.Contains(t, notes, "\n    <note id=\"n1\" category=\"review\">Check the number</note>")
	assert.Contains(t, notes, "\n    <note id=\"s2-1\">Short</note>\n  </notes>")

	back := ReadUnit("f1", unit, Prefixes{})
	require.Len(t, back.Notes, 2)
	assert.Equal(t, "s2", back.Notes[1].Segment)
}

func TestWriteUnit_RemovesEmptiedNotes(t *testing.T) {
	unit, err := ParseElement(notedUnit)
	require.NoError(t, err)
	recs := ReadUnit("f1", unit, Prefixes{})
	recs.Notes = nil

	WriteUnit(unit, recs, Prefixes{})

	assert.Nil(t, unit.Element("notes"))
}

func TestWriteUnit_UnlockAndClearTarget(t *testing.T) {
	doc := parseSample(t)
	p := doc.Prefixes()
	unit := Unit(doc.File("f1"), "u1")
	recs := ReadUnit("f1", unit, p)

	recs.Segments[0].SetTarget(nil, domain.StateTranslated)
	WriteUnit(unit, recs, p)

	seg := FindSegment(unit, "s1")
	assert.Nil(t, seg.Element("target"))
	assert.Equal(t, "initial", seg.Attr("state"))
	_, locked := seg.LookupAttr("subState")
	assert.False(t, locked)
}

// ==================== Structural edits ====================

func TestSplitContent(t *testing.T) {
	first, second, err := SplitContent(domain.Content{domain.Text("The cat sat on the mat")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "The cat", first.PlainText())
	assert.Equal(t, " sat on the mat", second.PlainText())
}

func TestSplitContent_CloseTagStaysInFirstPart(t *testing.T) {
	el, err := ParseElement(`<source>Hello <pc id="1">big</pc> world</source>`)
	require.NoError(t, err)

	first, second, err := SplitContent(Flatten(el), 9)
	require.NoError(t, err)
	assert.Equal(t, `<source>Hello <pc id="1">big</pc></source>`, ContentXML("source", first))
	assert.Equal(t, " world", second.PlainText())
}

func TestSplitContent_InsideMarkupFails(t *testing.T) {
	el, err := ParseElement(`<source>Hello <pc id="1">big</pc> world</source>`)
	require.NoError(t, err)

	_, _, err = SplitContent(Flatten(el), 7)
	require.ErrorIs(t, err, domain.ErrSplitInsideMarkup)
}

func TestSplitContent_OutOfRange(t *testing.T) {
	content := domain.Content{domain.Text("abc")}
	for _, offset := range []int{0, 3, 10, -1} {
		_, _, err := SplitContent(content, offset)
		require.ErrorIs(t, err, domain.ErrStructuralEdit, "offset %d", offset)
	}
}

func TestSplitSegment(t *testing.T) {
	doc := parseSample(t)
	unit := Unit(doc.File("f1"), "u1")
	seg := FindSegment(unit, "s1")

	newID, err := SplitSegment(unit, seg, 5)
	require.NoError(t, err)
	assert.Equal(t, "s1-1", newID)

	recs := ReadUnit("f1", unit, doc.ReadPrefixes())
	require.Len(t, recs.Segments, 4)
	assert.Equal(t, "Copy ", recs.Segments[0].SourceText)
	assert.Equal(t, domain.StateInitial, recs.Segments[0].State)
	assert.Empty(t, recs.Segments[0].TargetText)
	assert.Equal(t, "s1-1", recs.Segments[1].Segment)
	assert.Equal(t, "3 files.", recs.Segments[1].SourceText)
}

func TestMergeSegment(t *testing.T) {
	doc := parseSample(t)
	unit := Unit(doc.File("f1"), "u1")

	into, err := MergeSegment(unit, FindSegment(unit, "s2"))
	require.NoError(t, err)
	assert.Equal(t, "s1", into)

	recs := ReadUnit("f1", unit, doc.ReadPrefixes())
	require.Len(t, recs.Segments, 1, "ignorable between the segments is absorbed")
	merged := recs.Segments[0]
	assert.Equal(t, "Copy 3 files. Second one.", merged.SourceText)
	assert.Equal(t, "Copie 3 archivos. ", merged.TargetText)
	assert.Equal(t, domain.StateTranslated, merged.State)
}

func TestMergeSegment_FirstSegmentFails(t *testing.T) {
	doc := parseSample(t)
	unit := Unit(doc.File("f1"), "u1")

	_, err := MergeSegment(unit, FindSegment(unit, "s1"))
	require.ErrorIs(t, err, domain.ErrStructuralEdit)
}

func TestSplitSegment_KeepsPositionalIDsStable(t *testing.T) {
	el, err := ParseElement(`<unit id="u"><segment><source>One two</source></segment><segment><source>Three</source></segment></unit>`)
	require.NoError(t, err)

	_, err = SplitSegment(el, el.Elements("segment")[0], 3)
	require.NoError(t, err)

	segs := el.Elements("segment")
	require.Len(t, segs, 3)
	assert.Equal(t, "1", segs[0].Attr("id"))
	assert.Equal(t, "1-1", segs[1].Attr("id"))
	assert.Equal(t, "2", segs[2].Attr("id"))
}
