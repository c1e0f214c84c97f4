// Package highlight draws markers for analysed issues and shows the popup
// listing the issues behind a marker.
//
// A field's drawing strategy is picked once, when it is attached:
//   - NativeEditable surfaces get marker elements inserted around the match
//   - surfaces that can measure text get overlay markers positioned over it
//
// Render always clears a field's previous markers first, so rendering the
// same issues twice leaves one marker set. Markers are created per distinct
// quoted text and per occurrence; overlapping occurrences of the same text are
// not drawn twice. Markers of different issues may overlap; on native surfaces
// the shorter one nests inside the longer one when it fits in a single text
// node.
package highlight

import (
	"errors"
	"sort"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/span"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

var (
	ErrUnsupportedSurface = errors.New("surface cannot display markers")
	ErrUnknownField       = errors.New("field is not attached")
	ErrUnknownMarker      = errors.New("marker not found")
)

// Measurer is implemented by surfaces that can report text geometry
type Measurer interface {
	Measure(start, end int) []surface.Rect
}

// Marker is one highlighted occurrence of an issue's quoted text
type Marker struct {
	ID        id.MarkerID
	Field     id.FieldID
	IssueText string
	Span      span.Span
	// Rects is set for overlay markers, in viewport coordinates
	Rects []surface.Rect
}

type strategy interface {
	clear()
	place(s span.Span, marker id.MarkerID) ([]surface.Rect, bool)
	overlay() bool
}

type nativeStrategy struct {
	field *surface.NativeEditable
}

func (n nativeStrategy) clear() { n.field.ClearMarkers() }

func (n nativeStrategy) place(s span.Span, marker id.MarkerID) ([]surface.Rect, bool) {
	return nil, n.field.WrapRange(s.Start, s.End, marker) == nil
}

func (nativeStrategy) overlay() bool { return false }

type overlayStrategy struct {
	field    Measurer
	viewport *surface.Viewport
}

func (overlayStrategy) clear() {}

func (o overlayStrategy) place(s span.Span, _ id.MarkerID) ([]surface.Rect, bool) {
	rects := o.field.Measure(s.Start, s.End)
	for i := range rects {
		rects[i] = o.viewport.ToViewport(rects[i])
	}
	return rects, len(rects) > 0
}

func (overlayStrategy) overlay() bool { return true }

type fieldState struct {
	surface  surface.Surface
	strategy strategy
	issues   []issue.Issue
	markers  []Marker
}

// Renderer owns markers for every attached field
type Renderer struct {
	mu          sync.Mutex
	viewport    *surface.Viewport
	fields      map[id.FieldID]*fieldState
	viewportSub surface.Disposable
	popup       *Popup
	policy      *bluemonday.Policy
	logger      *logging.Logger
	metrics     *monitoring.Metrics
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics enables metric recording
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

// NewRenderer creates a renderer drawing into the given viewport
func NewRenderer(viewport *surface.Viewport, opts ...Option) *Renderer {
	if viewport == nil {
		viewport = surface.NewViewport(1280, 800)
	}
	r := &Renderer{
		viewport: viewport,
		fields:   make(map[id.FieldID]*fieldState),
		policy:   PopupPolicy(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Viewport returns the viewport markers are positioned in
func (r *Renderer) Viewport() *surface.Viewport {
	return r.viewport
}

// Attach registers a field and picks its drawing strategy
func (r *Renderer) Attach(field surface.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.attachLocked(field)
	return err
}

func (r *Renderer) attachLocked(field surface.Surface) (*fieldState, error) {
	if st, ok := r.fields[field.ID()]; ok {
		return st, nil
	}

	var strat strategy
	switch f := field.(type) {
	case *surface.NativeEditable:
		strat = nativeStrategy{field: f}
	case Measurer:
		strat = overlayStrategy{field: f, viewport: r.viewport}
	default:
		return nil, ErrUnsupportedSurface
	}

	st := &fieldState{surface: field, strategy: strat}
	r.fields[field.ID()] = st
	return st, nil
}

// Render clears the field's markers and draws one marker per occurrence of
// each distinct quoted text. The field's text is read at call time.
func (r *Renderer) Render(field surface.Surface, issues []issue.Issue) ([]Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.attachLocked(field)
	if err != nil {
		return nil, err
	}

	r.clearLocked(st)
	st.issues = append([]issue.Issue(nil), issues...)

	text := field.Text()
	type candidate struct {
		issueText string
		span      span.Span
	}
	var candidates []candidate
	seen := make(map[string]bool)
	for _, is := range issues {
		if !is.Locatable() || seen[is.Text] {
			continue
		}
		seen[is.Text] = true
		for _, s := range span.Disjoint(span.Spans(text, is.Text)) {
			candidates = append(candidates, candidate{issueText: is.Text, span: s})
		}
	}

	// longer spans go first so shorter ones can nest inside their markers
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].span.Len() > candidates[order[b]].span.Len()
	})

	placed := make([]*Marker, len(candidates))
	for _, i := range order {
		c := candidates[i]
		markerID := id.NewMarkerID()
		rects, ok := st.strategy.place(c.span, markerID)
		if !ok {
			r.logger.Debug("Marker not placed",
				zap.String("field", field.ID().String()),
				zap.String("issue", c.issueText),
				zap.Int("start", c.span.Start))
			continue
		}
		placed[i] = &Marker{
			ID:        markerID,
			Field:     field.ID(),
			IssueText: c.issueText,
			Span:      c.span,
			Rects:     rects,
		}
	}
	for _, m := range placed {
		if m != nil {
			st.markers = append(st.markers, *m)
		}
	}

	r.syncViewportLocked()
	r.metrics.AddMarkers(len(st.markers))
	r.logger.Debug("Rendered markers",
		zap.String("field", field.ID().String()),
		zap.Int("issues", len(issues)),
		zap.Int("markers", len(st.markers)))

	return append([]Marker(nil), st.markers...), nil
}

// Clear removes a field's markers and forgets its issues
func (r *Renderer) Clear(fieldID id.FieldID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.fields[fieldID]; ok {
		r.clearLocked(st)
		st.issues = nil
		r.syncViewportLocked()
	}
}

// Detach clears a field and drops it
func (r *Renderer) Detach(fieldID id.FieldID) {
	r.mu.Lock()
	st, ok := r.fields[fieldID]
	if ok {
		r.clearLocked(st)
		delete(r.fields, fieldID)
		r.syncViewportLocked()
	}
	popup := r.popup
	r.mu.Unlock()

	if popup != nil && popup.Field == fieldID {
		popup.Close()
	}
}

// Markers returns a field's current markers
func (r *Renderer) Markers(fieldID id.FieldID) []Marker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.fields[fieldID]; ok {
		return append([]Marker(nil), st.markers...)
	}
	return nil
}

// Issues returns the issues last rendered for a field
func (r *Renderer) Issues(fieldID id.FieldID) []issue.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.fields[fieldID]; ok {
		return append([]issue.Issue(nil), st.issues...)
	}
	return nil
}

// IssuesForMarker returns every rendered issue sharing the marker's quoted text
func (r *Renderer) IssuesForMarker(fieldID id.FieldID, markerID id.MarkerID) ([]issue.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, m, err := r.markerLocked(fieldID, markerID)
	if err != nil {
		return nil, err
	}
	return issue.GroupByText(r.fields[fieldID].issues, m.IssueText), nil
}

// ShowPopup opens the popup for a marker, closing any popup already open.
// A zero anchor falls back to the marker's first overlay rect. The popup
// follows viewport changes until it is closed.
func (r *Renderer) ShowPopup(fieldID id.FieldID, markerID id.MarkerID, anchor surface.Rect) (*Popup, error) {
	r.mu.Lock()
	st, m, err := r.markerLocked(fieldID, markerID)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	previous := r.popup
	r.popup = nil
	issues := issue.GroupByText(st.issues, m.IssueText)
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	if anchor == (surface.Rect{}) && len(m.Rects) > 0 {
		anchor = m.Rects[0]
	}

	p := &Popup{
		Field:     fieldID,
		Marker:    markerID,
		IssueText: m.IssueText,
		Issues:    issues,
		Anchor:    anchor,
		html:      renderPopup(issues, r.policy),
	}
	place := func() {
		p.setPosition(PlacePopup(p.Anchor, r.viewport.Size(), r.viewport.Scroll(), surface.Size{}))
	}
	place()

	sub := r.viewport.Subscribe(func(surface.ViewportEvent) { place() })
	p.handle = surface.NewDisposable(func() {
		sub.Dispose()
		r.mu.Lock()
		if r.popup == p {
			r.popup = nil
		}
		r.mu.Unlock()
	})

	r.mu.Lock()
	r.popup = p
	r.mu.Unlock()

	r.metrics.AddSuggestionsShown(len(issues))
	return p, nil
}

// CurrentPopup returns the open popup, if any
func (r *Renderer) CurrentPopup() *Popup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.popup
}

// HidePopup closes the open popup, if any
func (r *Renderer) HidePopup() {
	if p := r.CurrentPopup(); p != nil {
		p.Close()
	}
}

// Relayout recomputes overlay geometry, e.g. after a field moved
func (r *Renderer) Relayout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relayoutLocked()
}

func (r *Renderer) markerLocked(fieldID id.FieldID, markerID id.MarkerID) (*fieldState, Marker, error) {
	st, ok := r.fields[fieldID]
	if !ok {
		return nil, Marker{}, ErrUnknownField
	}
	for _, m := range st.markers {
		if m.ID == markerID {
			return st, m, nil
		}
	}
	return nil, Marker{}, ErrUnknownMarker
}

func (r *Renderer) clearLocked(st *fieldState) {
	st.strategy.clear()
	st.markers = nil
}

func (r *Renderer) relayoutLocked() {
	for _, st := range r.fields {
		if !st.strategy.overlay() {
			continue
		}
		for i := range st.markers {
			rects, _ := st.strategy.place(st.markers[i].Span, st.markers[i].ID)
			st.markers[i].Rects = rects
		}
	}
}

// syncViewportLocked holds a viewport subscription only while overlay
// markers exist
func (r *Renderer) syncViewportLocked() {
	visible := false
	for _, st := range r.fields {
		if st.strategy.overlay() && len(st.markers) > 0 {
			visible = true
			break
		}
	}

	switch {
	case visible && r.viewportSub == nil:
		r.viewportSub = r.viewport.Subscribe(func(surface.ViewportEvent) {
			r.Relayout()
		})
	case !visible && r.viewportSub != nil:
		r.viewportSub.Dispose()
		r.viewportSub = nil
	}
}
