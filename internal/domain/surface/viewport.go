package surface

import "sync"

// ViewportEventType distinguishes resize from scroll
type ViewportEventType string

const (
	ViewportResize ViewportEventType = "resize"
	ViewportScroll ViewportEventType = "scroll"
)

// ViewportEvent is delivered to viewport subscribers
type ViewportEvent struct {
	Type ViewportEventType
	Size Size
}

// Size in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the visible window onto the page
type Viewport struct {
	events emitter[ViewportEvent]

	mu     sync.RWMutex
	size   Size
	scroll Point
}

// NewViewport creates a viewport of the given size scrolled to the origin
func NewViewport(width, height float64) *Viewport {
	return &Viewport{size: Size{Width: width, Height: height}}
}

// Size returns the viewport dimensions
func (v *Viewport) Size() Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// Scroll returns the page scroll offset
func (v *Viewport) Scroll() Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scroll
}

// Resize changes the dimensions and notifies subscribers
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	v.size = Size{Width: width, Height: height}
	size := v.size
	v.mu.Unlock()
	v.events.emit(ViewportEvent{Type: ViewportResize, Size: size})
}

// ScrollTo changes the scroll offset and notifies subscribers
func (v *Viewport) ScrollTo(x, y float64) {
	v.mu.Lock()
	v.scroll = Point{X: x, Y: y}
	size := v.size
	v.mu.Unlock()
	v.events.emit(ViewportEvent{Type: ViewportScroll, Size: size})
}

// ToViewport converts a page rect into viewport coordinates
func (v *Viewport) ToViewport(r Rect) Rect {
	s := v.Scroll()
	r.Left -= s.X
	r.Top -= s.Y
	return r
}

// Subscribe registers for resize and scroll events
func (v *Viewport) Subscribe(fn func(ViewportEvent)) Disposable {
	return v.events.subscribe(fn)
}

// Listeners returns the number of active subscriptions
func (v *Viewport) Listeners() int {
	return v.events.count()
}
