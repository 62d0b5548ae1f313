package services

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// tagPlaceholder matches the rendered form of an inline tag.
var tagPlaceholder = regexp.MustCompile(`<img data-tag="(\d+)"\s*/?>`)

// renderer turns inline content into editor markup. Every distinct tag
// gets the next integer id the first time it is rendered; ids are only
// meaningful within one renderer, so each row gets its own.
type renderer struct {
	ids  map[string]int
	tags []domain.Run
}

func newRenderer() *renderer {
	return &renderer{ids: make(map[string]int)}
}

// segmentRenderer returns a renderer that has seen the source and target
// of seg, in that order.
func segmentRenderer(seg *domain.Segment) *renderer {
	r := newRenderer()
	r.render(seg.Source)
	r.render(seg.Target)
	return r
}

func (r *renderer) id(run domain.Run) int {
	key := run.Key()
	if n, ok := r.ids[key]; ok {
		return n
	}
	r.tags = append(r.tags, run)
	n := len(r.tags)
	r.ids[key] = n
	return n
}

// render returns content as escaped text with tags replaced by numbered
// placeholders.
func (r *renderer) render(c domain.Content) string {
	var b strings.Builder
	for _, run := range c {
		if run.Kind == domain.TextRun {
			b.WriteString(html.EscapeString(run.Text))
			continue
		}
		fmt.Fprintf(&b, `<img data-tag="%d"/>`, r.id(run))
	}
	return b.String()
}

// parse reverses render, resolving placeholders against the tags this
// renderer has seen.
func (r *renderer) parse(markup string) (domain.Content, error) {
	var out domain.Content
	last := 0
	for _, loc := range tagPlaceholder.FindAllStringSubmatchIndex(markup, -1) {
		if loc[0] > last {
			out = append(out, domain.Text(html.UnescapeString(markup[last:loc[0]])))
		}
		n, _ := strconv.Atoi(markup[loc[2]:loc[3]])
		if n < 1 || n > len(r.tags) {
			return nil, fmt.Errorf("unknown tag placeholder %d: %w", n, domain.ErrInvalidInput)
		}
		out = append(out, domain.Content{r.tags[n-1]}.Clone()...)
		last = loc[1]
	}
	if last < len(markup) {
		out = append(out, domain.Text(html.UnescapeString(markup[last:])))
	}
	return out.Normalize(), nil
}
