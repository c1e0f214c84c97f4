package surface

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

const (
	// MarkerAttr carries the marker id on inserted marker elements
	MarkerAttr = "data-textwarden-marker"
	// MarkerClass styles inserted marker elements
	MarkerClass = "textwarden-marker"
)

var (
	// ErrSpanUnavailable is returned when a range crosses markup
	ErrSpanUnavailable = errors.New("range cannot be wrapped")
	// ErrInvalidRange is returned for empty or out-of-bounds ranges
	ErrInvalidRange = errors.New("invalid range")
)

// MarkerInfo describes a marker currently in the tree
type MarkerInfo struct {
	ID   id.MarkerID
	Text string
}

// NativeEditable is a rich-content surface backed by an HTML node
type NativeEditable struct {
	events emitter[Event]

	mu      sync.Mutex
	id      id.FieldID
	root    *html.Node
	sel     Selection
	focused bool
}

// NewNativeEditable wraps an existing element node
func NewNativeEditable(fieldID id.FieldID, root *html.Node) *NativeEditable {
	return &NativeEditable{id: fieldID, root: root}
}

// ParseNativeEditable builds a detached contenteditable div from an HTML fragment
func ParseNativeEditable(fieldID id.FieldID, fragment string) (*NativeEditable, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "id", Val: string(fieldID)},
			{Key: "contenteditable", Val: "true"},
		},
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return NewNativeEditable(fieldID, root), nil
}

func (n *NativeEditable) ID() id.FieldID { return n.id }

func (n *NativeEditable) Kind() Kind { return KindNativeEditable }

// Node returns the backing element
func (n *NativeEditable) Node() *html.Node { return n.root }

// Text returns the concatenated text content; <br> and block boundaries
// count as a newline
func (n *NativeEditable) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, text := n.segments()
	return text
}

// SetText replaces all children with a single text node. Markers are dropped.
func (n *NativeEditable) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for c := n.root.FirstChild; c != nil; {
		next := c.NextSibling
		n.root.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.root.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	n.sel = clampSelection(n.sel, len(text))
}

func (n *NativeEditable) Selection() Selection {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sel
}

func (n *NativeEditable) SetSelection(sel Selection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, text := n.segments()
	n.sel = clampSelection(sel, len(text))
}

func (n *NativeEditable) Focused() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focused
}

// Focus marks the surface focused and emits a focus event
func (n *NativeEditable) Focus() {
	n.mu.Lock()
	n.focused = true
	n.mu.Unlock()
	n.events.emit(Event{Type: EventFocus, Field: n.id})
}

// Blur clears focus
func (n *NativeEditable) Blur() {
	n.mu.Lock()
	n.focused = false
	n.mu.Unlock()
	n.events.emit(Event{Type: EventBlur, Field: n.id})
}

// Remove detaches the element from its document and emits a removal event
func (n *NativeEditable) Remove() {
	n.mu.Lock()
	if n.root.Parent != nil {
		n.root.Parent.RemoveChild(n.root)
	}
	n.mu.Unlock()
	n.events.emit(Event{Type: EventRemoved, Field: n.id})
}

func (n *NativeEditable) Notify() {
	n.events.emit(Event{Type: EventInput, Field: n.id})
}

func (n *NativeEditable) Subscribe(fn func(Event)) Disposable {
	return n.events.subscribe(fn)
}

// InnerHTML serialises the children of the backing element
func (n *NativeEditable) InnerHTML() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var b strings.Builder
	for c := n.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// ReplaceRange rewrites [start, end) in place, keeping the surrounding
// markup. The replacement goes into the first text node the range touches;
// partly covered nodes are trimmed and fully covered ones removed. Line
// breaks between blocks are kept.
func (n *NativeEditable) ReplaceRange(start, end int, replacement string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	segs, text := n.segments()
	if start < 0 || end > len(text) || start > end {
		return
	}

	var covered []segment
	for _, seg := range segs {
		if seg.end > start && seg.start < end {
			covered = append(covered, seg)
		}
	}
	if len(covered) == 0 {
		// insertion point, or a range made only of line breaks
		for _, seg := range segs {
			if start >= seg.start && start <= seg.end {
				covered = append(covered, seg)
				break
			}
		}
	}
	if len(covered) == 0 {
		if replacement != "" {
			n.root.AppendChild(&html.Node{Type: html.TextNode, Data: replacement})
		}
		return
	}

	first := covered[0]
	from := max(start-first.start, 0)
	tail := ""
	if end <= first.end {
		tail = first.node.Data[end-first.start:]
	}
	first.node.Data = first.node.Data[:from] + replacement + tail

	for i, seg := range covered[1:] {
		if i == len(covered)-2 && end < seg.end {
			seg.node.Data = seg.node.Data[end-seg.start:]
			continue
		}
		removeText(n.root, seg.node)
	}
	if first.node.Data == "" {
		removeText(n.root, first.node)
	}
}

// WrapRange inserts a marker element around [start, end). The range must lie
// inside one text node; a range inside an existing marker nests within it.
func (n *NativeEditable) WrapRange(start, end int, marker id.MarkerID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	segs, text := n.segments()
	if start < 0 || end > len(text) || start >= end {
		return ErrInvalidRange
	}

	for _, seg := range segs {
		if start < seg.start || end > seg.end {
			continue
		}
		wrapText(seg.node, start-seg.start, end-seg.start, marker)
		return nil
	}
	return ErrSpanUnavailable
}

// ClearMarkers removes every marker element, restoring the original text nodes
func (n *NativeEditable) ClearMarkers() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	markers := htmlquery.Find(n.root, "//span[@"+MarkerAttr+"]")
	for _, m := range markers {
		parent := m.Parent
		if parent == nil {
			continue
		}
		for c := m.FirstChild; c != nil; {
			next := c.NextSibling
			m.RemoveChild(c)
			parent.InsertBefore(c, m)
			c = next
		}
		parent.RemoveChild(m)
	}
	mergeText(n.root)
	return len(markers)
}

// Markers lists the markers currently in the tree in document order
func (n *NativeEditable) Markers() []MarkerInfo {
	n.mu.Lock()
	defer n.mu.Unlock()

	nodes := htmlquery.Find(n.root, "//span[@"+MarkerAttr+"]")
	out := make([]MarkerInfo, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, MarkerInfo{
			ID:   id.MarkerID(htmlquery.SelectAttr(node, MarkerAttr)),
			Text: htmlquery.InnerText(node),
		})
	}
	return out
}

// MarkerText returns the text covered by a marker
func (n *NativeEditable) MarkerText(marker id.MarkerID) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	node := htmlquery.FindOne(n.root, fmt.Sprintf("//span[@%s='%s']", MarkerAttr, marker))
	if node == nil {
		return "", false
	}
	return htmlquery.InnerText(node), true
}

type segment struct {
	node  *html.Node
	start int
	end   int
}

// segments maps text nodes onto offsets in the flattened text. <br> and the
// boundaries of block elements read as a single newline.
func (n *NativeEditable) segments() ([]segment, string) {
	var (
		b     strings.Builder
		segs  []segment
		block bool
	)

	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if block {
					newline()
					block = false
				}
				start := b.Len()
				b.WriteString(c.Data)
				segs = append(segs, segment{node: c, start: start, end: b.Len()})
			case html.ElementNode:
				switch {
				case c.DataAtom == atom.Br:
					b.WriteByte('\n')
					block = false
				case blockElements[c.DataAtom]:
					newline()
					block = false
					walk(c)
					block = true
				default:
					walk(c)
				}
			}
		}
	}
	walk(n.root)
	return segs, b.String()
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// removeText detaches a text node and any inline wrappers or markers it
// leaves empty
func removeText(root, node *html.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(node)
	for parent != root && parent.FirstChild == nil && parent.Parent != nil && !blockElements[parent.DataAtom] {
		grand := parent.Parent
		grand.RemoveChild(parent)
		parent = grand
	}
}

// wrapText splits a text node into before, marker and after
func wrapText(node *html.Node, from, to int, marker id.MarkerID) {
	parent := node.Parent
	before, middle, after := node.Data[:from], node.Data[from:to], node.Data[to:]

	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: MarkerAttr, Val: string(marker)},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: middle})

	next := node.NextSibling
	if before == "" {
		parent.RemoveChild(node)
	} else {
		node.Data = before
	}
	parent.InsertBefore(span, next)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, next)
	}
}

// mergeText joins adjacent text nodes left behind by marker removal
func mergeText(node *html.Node) {
	for c := node.FirstChild; c != nil; {
		if c.Type == html.TextNode {
			if next := c.NextSibling; next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				node.RemoveChild(next)
				continue
			}
		}
		if c.Type == html.ElementNode {
			mergeText(c)
		}
		c = c.NextSibling
	}
}
