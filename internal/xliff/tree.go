package xliff

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// NodeKind identifies the kind of a tree node.
type NodeKind int

// Node kinds.
const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Node is a node of a parsed XML document. Element and attribute names
// keep their namespace prefix as written.
type Node struct {
	Kind     NodeKind
	Name     string
	Attrs    []domain.Attr
	Children []*Node

	// Text holds character data, comment text, directive text or the
	// processing instruction body.
	Text string
}

// NewElement creates an element node.
func NewElement(name string, attrs ...domain.Attr) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs}
}

// NewText creates a text node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// Attr returns the value of an attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// LookupAttr returns the value of an attribute and whether it is present.
func (n *Node) LookupAttr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces or appends an attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, domain.Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Elements returns the child elements, optionally restricted to names.
func (n *Node) Elements(names ...string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if len(names) == 0 || containsName(names, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// Element returns the first child element with the given name.
func (n *Node) Element(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// Append adds children at the end.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Insert adds a child at position i.
func (n *Node) Insert(i int, child *Node) {
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// Remove deletes a child, returning its former position or -1.
func (n *Node) Remove(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return i
		}
	}
	return -1
}

// IndexOf returns the position of a child or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	out := &Node{Kind: n.Kind, Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		out.Attrs = append([]domain.Attr(nil), n.Attrs...)
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

// InnerText concatenates the character data of every descendant.
func (n *Node) InnerText() string {
	var b strings.Builder
	n.innerText(&b)
	return b.String()
}

func (n *Node) innerText(b *strings.Builder) {
	if n.Kind == TextNode {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.innerText(b)
	}
}

// String serializes the node.
func (n *Node) String() string {
	var buf bytes.Buffer
	_ = n.write(&buf)
	return buf.String()
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Document is a parsed XML document: the root element plus any
// declarations, comments and whitespace around it.
type Document struct {
	Nodes []*Node
}

// Root returns the document element.
func (d *Document) Root() *Node {
	for _, n := range d.Nodes {
		if n.Kind == ElementNode {
			return n
		}
	}
	return nil
}

// Parse reads an XML document.
func Parse(r io.Reader) (*Document, error) {
	nodes, err := parseNodes(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{Nodes: nodes}
	if doc.Root() == nil {
		return nil, errors.New("parsing document: no root element")
	}
	return doc, nil
}

// ParseElement parses a serialized element such as a stored
// <source> or <target>.
func ParseElement(s string) (*Node, error) {
	nodes, err := parseNodes(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Kind == ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("parsing element: no element in %q", s)
}

func parseNodes(r io.Reader) ([]*Node, error) {
	dec := xml.NewDecoder(r)
	var top []*Node
	var stack []*Node

	add := func(n *Node) {
		if len(stack) == 0 {
			top = append(top, n)
			return
		}
		parent := stack[len(stack)-1]
		if n.Kind == TextNode {
			if last := len(parent.Children) - 1; last >= 0 && parent.Children[last].Kind == TextNode {
				parent.Children[last].Text += n.Text
				return
			}
		}
		parent.Children = append(parent.Children, n)
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Kind: ElementNode, Name: qualified(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, domain.Attr{Name: qualified(a.Name), Value: a.Value})
			}
			add(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].Name != qualified(t.Name) {
				return nil, fmt.Errorf("parsing xml: unexpected end element %s", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			add(NewText(string(t)))
		case xml.Comment:
			add(&Node{Kind: CommentNode, Text: string(t)})
		case xml.ProcInst:
			add(&Node{Kind: ProcInstNode, Name: t.Target, Text: string(t.Inst)})
		case xml.Directive:
			add(&Node{Kind: DirectiveNode, Text: string(t)})
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parsing xml: unclosed element %s", stack[len(stack)-1].Name)
	}
	return top, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Write serializes the document.
func (d *Document) Write(w io.Writer) error {
	for _, n := range d.Nodes {
		if err := n.write(w); err != nil {
			return err
		}
	}
	return nil
}

// Bytes serializes the document into a byte slice.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_ = d.Write(&buf)
	return buf.Bytes()
}

func (n *Node) write(w io.Writer) error {
	var err error
	switch n.Kind {
	case TextNode:
		_, err = io.WriteString(w, escapeText(n.Text))
	case CommentNode:
		_, err = fmt.Fprintf(w, "<!--%s-->", n.Text)
	case ProcInstNode:
		if n.Text == "" {
			_, err = fmt.Fprintf(w, "<?%s?>", n.Name)
		} else {
			_, err = fmt.Fprintf(w, "<?%s %s?>", n.Name, n.Text)
		}
	case DirectiveNode:
		_, err = fmt.Fprintf(w, "<!%s>", n.Text)
	case ElementNode:
		err = n.writeElement(w)
	}
	return err
}

func (n *Node) writeElement(w io.Writer) error {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}
	if len(n.Children) == 0 {
		b.WriteString("/>")
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteByte('>')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.write(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", n.Name)
	return err
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#10;", "\r", "&#13;", "\t", "&#9;")
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
