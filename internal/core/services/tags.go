package services

import (
	"strings"
	"unicode"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// ==================== Tag reconciliation ====================

// remapTags rewrites the tags of a match target onto the tags of a live
// source. Match source tags are paired with live tags of the same kind by
// position; a close tag follows its open tag. Target tags with no live
// counterpart are dropped. Term markers belong to the match and are kept.
func remapTags(matchSource, matchTarget, live domain.Content) domain.Content {
	var liveOpens, liveStandalones []domain.Run
	liveCloses := make(map[string]domain.Run)
	for _, r := range live {
		switch r.Kind {
		case domain.OpenTag:
			liveOpens = append(liveOpens, r)
		case domain.StandaloneTag:
			liveStandalones = append(liveStandalones, r)
		case domain.CloseTag:
			liveCloses[r.Name+"\x00"+r.ID] = r
		}
	}

	mapping := make(map[string]domain.Run)
	opens, standalones := 0, 0
	for _, r := range matchSource {
		if isTermMarker(r) {
			continue
		}
		switch r.Kind {
		case domain.OpenTag:
			if opens < len(liveOpens) {
				o := liveOpens[opens]
				mapping[r.Key()] = o
				closing, ok := liveCloses[o.Name+"\x00"+o.ID]
				if !ok {
					closing = domain.Run{Kind: domain.CloseTag, Name: o.Name, ID: o.ID, Attrs: o.Attrs}
				}
				mapping[domain.Run{Kind: domain.CloseTag, Name: r.Name, ID: r.ID}.Key()] = closing
			}
			opens++
		case domain.StandaloneTag:
			if standalones < len(liveStandalones) {
				mapping[r.Key()] = liveStandalones[standalones]
			}
			standalones++
		}
	}

	out := make(domain.Content, 0, len(matchTarget))
	for _, r := range matchTarget {
		if r.Kind == domain.TextRun || isTermMarker(r) {
			out = append(out, domain.Content{r}.Clone()...)
			continue
		}
		if m, ok := mapping[r.Key()]; ok {
			out = append(out, domain.Content{m}.Clone()...)
		}
	}
	return out.Normalize()
}

// isTermMarker reports whether r delimits a glossary term annotation.
func isTermMarker(r domain.Run) bool {
	return r.Name == "mrk" && r.Attr("type") == "term" && (r.Kind == domain.OpenTag || r.Kind == domain.CloseTag)
}

// tagIssue classifies how the tags of target differ from those of source.
// Missing tags take precedence over extra ones, and both over reordering.
func tagIssue(source, target domain.Content) (domain.TagIssueKind, bool) {
	src, tgt := source.Tags(), target.Tags()

	counts := make(map[string]int)
	for _, r := range src {
		counts[r.Key()]++
	}
	for _, r := range tgt {
		counts[r.Key()]--
	}
	missing, extra := false, false
	for _, n := range counts {
		if n > 0 {
			missing = true
		}
		if n < 0 {
			extra = true
		}
	}
	switch {
	case missing:
		return domain.TagsMissing, true
	case extra:
		return domain.TagsExtra, true
	}

	for i := range src {
		if src[i].Key() != tgt[i].Key() {
			return domain.TagsReordered, true
		}
	}
	for i := range src {
		if src[i].Signature() != tgt[i].Signature() {
			return domain.TagsDifferent, true
		}
	}
	return "", false
}

// ==================== Whitespace ====================

// spaceIssue reports whether the outer whitespace of seg's target differs
// from its source.
func spaceIssue(seg *domain.Segment) (domain.SpaceIssue, bool) {
	issue := domain.SpaceIssue{
		SegmentKey:     seg.SegmentKey,
		Index:          seg.Idx,
		SourceLeading:  domain.LeadingSpace(seg.SourceText),
		TargetLeading:  domain.LeadingSpace(seg.TargetText),
		SourceTrailing: domain.TrailingSpace(seg.SourceText),
		TargetTrailing: domain.TrailingSpace(seg.TargetText),
	}
	differs := issue.SourceLeading != issue.TargetLeading || issue.SourceTrailing != issue.TargetTrailing
	return issue, differs
}

// fixSpaces gives target the outer whitespace of source. Whitespace is
// placed next to the first or last text run unless source starts or ends
// with text, in which case it goes to the very edge.
func fixSpaces(source, target domain.Content) domain.Content {
	source = source.Normalize()
	text := source.PlainText()
	lead, trail := domain.LeadingSpace(text), domain.TrailingSpace(text)
	if strings.TrimSpace(text) == "" {
		return target.Normalize()
	}

	out := stripLeading(target.Clone().Normalize())
	out = stripTrailing(out)

	if lead != "" {
		at := 0
		if len(source) > 0 && source[0].Kind != domain.TextRun {
			at = firstText(out)
		}
		out = insertRun(out, at, domain.Text(lead))
	}
	if trail != "" {
		at := len(out)
		if n := len(source); n > 0 && source[n-1].Kind != domain.TextRun {
			if i := lastText(out); i >= 0 {
				at = i + 1
			}
		}
		out = insertRun(out, at, domain.Text(trail))
	}
	return out.Normalize()
}

func stripLeading(c domain.Content) domain.Content {
	for i := range c {
		if c[i].Kind != domain.TextRun {
			continue
		}
		c[i].Text = strings.TrimLeftFunc(c[i].Text, unicode.IsSpace)
		if c[i].Text != "" {
			break
		}
	}
	return c.Normalize()
}

func stripTrailing(c domain.Content) domain.Content {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Kind != domain.TextRun {
			continue
		}
		c[i].Text = strings.TrimRightFunc(c[i].Text, unicode.IsSpace)
		if c[i].Text != "" {
			break
		}
	}
	return c.Normalize()
}

func firstText(c domain.Content) int {
	for i, r := range c {
		if r.Kind == domain.TextRun {
			return i
		}
	}
	return 0
}

func lastText(c domain.Content) int {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Kind == domain.TextRun {
			return i
		}
	}
	return -1
}

func insertRun(c domain.Content, at int, r domain.Run) domain.Content {
	out := make(domain.Content, 0, len(c)+1)
	out = append(out, c[:at]...)
	out = append(out, r)
	return append(out, c[at:]...)
}
