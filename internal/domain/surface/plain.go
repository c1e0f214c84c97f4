package surface

import (
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

// Rect is a box in page coordinates (pixels)
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right edge
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom edge
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Geometry describes how a plain-value field lays out its text.
// Glyph widths come from terminal cell widths, so wide CJK runes take two cells.
type Geometry struct {
	Left       float64
	Top        float64
	Width      float64
	CharWidth  float64
	LineHeight float64
	ScrollLeft float64
	ScrollTop  float64
}

// DefaultGeometry is a monospace 8x18 box, 600px wide
func DefaultGeometry() Geometry {
	return Geometry{Width: 600, CharWidth: 8, LineHeight: 18}
}

func (g Geometry) columns() int {
	if g.CharWidth <= 0 || g.Width <= 0 {
		return 0
	}
	return int(g.Width / g.CharWidth)
}

// PlainValue is a flat string surface such as an input or textarea
type PlainValue struct {
	events emitter[Event]

	mu        sync.Mutex
	id        id.FieldID
	value     string
	multiline bool
	geometry  Geometry
	sel       Selection
	focused   bool
	node      *html.Node
}

// NewPlainValue creates a detached plain-value surface
func NewPlainValue(fieldID id.FieldID, value string, multiline bool, geometry Geometry) *PlainValue {
	return &PlainValue{
		id:        fieldID,
		value:     value,
		multiline: multiline,
		geometry:  geometry,
		sel:       Selection{Start: len(value), End: len(value)},
	}
}

// bind mirrors writes into the element it was discovered from
func (p *PlainValue) bind(node *html.Node) {
	p.node = node
}

func (p *PlainValue) ID() id.FieldID { return p.id }

func (p *PlainValue) Kind() Kind { return KindPlainValue }

// Multiline reports whether text wraps (textarea)
func (p *PlainValue) Multiline() bool { return p.multiline }

func (p *PlainValue) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *PlainValue) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = text
	p.sel = clampSelection(p.sel, len(text))
	if p.node != nil {
		writeValue(p.node, text)
	}
}

func (p *PlainValue) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel
}

func (p *PlainValue) SetSelection(sel Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel = clampSelection(sel, len(p.value))
}

func (p *PlainValue) Focused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// Focus marks the surface focused and emits a focus event
func (p *PlainValue) Focus() {
	p.mu.Lock()
	p.focused = true
	p.mu.Unlock()
	p.events.emit(Event{Type: EventFocus, Field: p.id})
}

// Blur clears focus
func (p *PlainValue) Blur() {
	p.mu.Lock()
	p.focused = false
	p.mu.Unlock()
	p.events.emit(Event{Type: EventBlur, Field: p.id})
}

// Remove emits a removal event and detaches the bound element
func (p *PlainValue) Remove() {
	p.mu.Lock()
	if p.node != nil && p.node.Parent != nil {
		p.node.Parent.RemoveChild(p.node)
	}
	p.mu.Unlock()
	p.events.emit(Event{Type: EventRemoved, Field: p.id})
}

func (p *PlainValue) Notify() {
	p.events.emit(Event{Type: EventInput, Field: p.id})
}

func (p *PlainValue) Subscribe(fn func(Event)) Disposable {
	return p.events.subscribe(fn)
}

// Geometry returns the current layout box
func (p *PlainValue) Geometry() Geometry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.geometry
}

// SetGeometry updates the layout box, e.g. after the page reflows
func (p *PlainValue) SetGeometry(g Geometry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.geometry = g
}

// Measure returns one rect per visual line covered by [start, end), in page
// coordinates. Textareas wrap at the box width; inputs never wrap.
func (p *PlainValue) Measure(start, end int) []Rect {
	p.mu.Lock()
	defer p.mu.Unlock()

	if start < 0 || end > len(p.value) || start >= end {
		return nil
	}

	g := p.geometry
	cols := 0
	if p.multiline {
		cols = g.columns()
	}

	var (
		rects          []Rect
		line, col      int
		curLine        = -1
		startCol, last int
	)
	flush := func() {
		if curLine < 0 || last == startCol {
			return
		}
		rects = append(rects, Rect{
			Left:   g.Left + float64(startCol)*g.CharWidth - g.ScrollLeft,
			Top:    g.Top + float64(curLine)*g.LineHeight - g.ScrollTop,
			Width:  float64(last-startCol) * g.CharWidth,
			Height: g.LineHeight,
		})
	}

	for off, r := range p.value {
		if off >= end {
			break
		}
		if r == '\n' && p.multiline {
			if off >= start {
				flush()
				curLine = -1
			}
			line++
			col = 0
			continue
		}

		w := runewidth.RuneWidth(r)
		if cols > 0 && col > 0 && col+w > cols {
			if off >= start {
				flush()
				curLine = -1
			}
			line++
			col = 0
		}

		if off >= start {
			if curLine != line {
				curLine = line
				startCol = col
			}
			last = col + w
		}
		col += w
	}
	flush()
	return rects
}

// writeValue mirrors a value into an input attribute or textarea body
func writeValue(node *html.Node, text string) {
	if node.Data == "textarea" {
		for c := node.FirstChild; c != nil; {
			next := c.NextSibling
			node.RemoveChild(c)
			c = next
		}
		if text != "" {
			node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		}
		return
	}
	for i, a := range node.Attr {
		if a.Key == "value" {
			node.Attr[i].Val = text
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: "value", Val: text})
}
