// Package watcher tracks editable surfaces and decides when to analyse them.
//
// Each field is either Idle or PendingAnalysis. A change to content that
// differs from the last analysed snapshot (re)starts a quiet-period timer;
// only when the timer fires without further changes is the orchestrator
// called, followed by one render. Regaining focus with unanalysed content
// analyses immediately. At most one analysis per field is in flight: a
// request arriving meanwhile marks the field dirty and a fresh cycle starts
// as soon as the running one completes.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/apply"
	"github.com/GriffinCanCode/TextWarden/internal/domain/highlight"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/settings"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

// DefaultQuietPeriod is how long a field must stay unchanged before analysis
const DefaultQuietPeriod = 1000 * time.Millisecond

// ErrUnknownField is returned for fields that are not tracked
var ErrUnknownField = errors.New("field is not tracked")

// State of a tracked field
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending_analysis"
)

// Analyzer runs one analysis cycle
type Analyzer interface {
	Analyze(ctx context.Context, text string, checks []string) analysis.Result
}

// Highlighter draws markers for a field
type Highlighter interface {
	Attach(field surface.Surface) error
	Render(field surface.Surface, issues []issue.Issue) ([]highlight.Marker, error)
	Clear(fieldID id.FieldID)
	Detach(fieldID id.FieldID)
}

// Invalidator drops memoised analysis results
type Invalidator interface {
	Clear()
}

// CredentialHandler is told about problems the user can fix with their key
type CredentialHandler func(kind analysis.ErrorKind, message string)

// Stats are cumulative watcher counters
type Stats struct {
	Tracked    int   `json:"tracked"`
	Scheduled  int64 `json:"scheduled"`
	Analyses   int64 `json:"analyses"`
	Coalesced  int64 `json:"coalesced"`
	Suppressed int64 `json:"suppressed"`
	Failures   int64 `json:"failures"`
	Markers    int64 `json:"markers"`
	// Corrections counts suggestions written back into fields
	Corrections int64 `json:"corrections"`
}

// FieldSnapshot is a read-only view of a tracked field
type FieldSnapshot struct {
	ID               id.FieldID
	Kind             surface.Kind
	State            State
	LastAnalyzedText string
	ActiveIssues     []issue.Issue
	Markers          int
	InFlight         bool
}

type trackedField struct {
	surface surface.Surface
	sub     surface.Disposable

	state        State
	lastAnalyzed string
	analyzed     bool
	issues       []issue.Issue
	markers      int

	// snapshot before the analysis in flight, restored when it fails
	prevAnalyzed    string
	prevWasAnalyzed bool

	timer      Timer
	generation uint64
	inFlight   bool
	dirty      bool
	removed    bool
}

// Watcher owns every tracked field
type Watcher struct {
	analyzer     Analyzer
	renderer     Highlighter
	store        settings.Store
	cache        Invalidator
	clock        Clock
	quiet        time.Duration
	site         string
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	onCredential CredentialHandler

	mu     sync.Mutex
	fields map[id.FieldID]*trackedField
	stats  Stats
	closed bool

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	inflight    sync.WaitGroup
}

// Option configures a Watcher
type Option func(*Watcher)

// WithClock replaces the timer source
func WithClock(c Clock) Option {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithQuietPeriod overrides the debounce window
func WithQuietPeriod(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.quiet = d
		}
	}
}

// WithSite sets the page host used for disabled-site checks
func WithSite(site string) Option {
	return func(w *Watcher) { w.site = site }
}

// WithCache clears c whenever the credential or language changes
func WithCache(c Invalidator) Option {
	return func(w *Watcher) { w.cache = c }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics enables metric recording
func WithMetrics(m *monitoring.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// OnCredentialIssue registers the handler for missing or invalid credentials
func OnCredentialIssue(fn CredentialHandler) Option {
	return func(w *Watcher) { w.onCredential = fn }
}

// New creates a watcher. A nil store means default settings.
func New(analyzer Analyzer, renderer Highlighter, store settings.Store, opts ...Option) *Watcher {
	if store == nil {
		store, _ = settings.NewMemoryStore(settings.Default())
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		analyzer: analyzer,
		renderer: renderer,
		store:    store,
		clock:    RealClock{},
		quiet:    DefaultQuietPeriod,
		logger:   logging.NewNop(),
		fields:   make(map[id.FieldID]*trackedField),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.unsubscribe = store.Subscribe(w.onSettings)
	return w
}

// Track starts observing a surface. Tracking the same field twice is a no-op.
func (w *Watcher) Track(s surface.Surface) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("watcher closed")
	}
	if _, ok := w.fields[s.ID()]; ok {
		return nil
	}
	if err := w.renderer.Attach(s); err != nil {
		return err
	}

	fieldID := s.ID()
	f := &trackedField{surface: s, state: StateIdle}
	f.sub = s.Subscribe(func(ev surface.Event) { w.handle(fieldID, ev) })
	w.fields[fieldID] = f
	w.metrics.SetFieldsTracked(len(w.fields))

	w.logger.Debug("Tracking field", zap.String("field", fieldID.String()), zap.String("kind", string(s.Kind())))
	return nil
}

// Untrack stops observing a field and removes its markers
func (w *Watcher) Untrack(fieldID id.FieldID) {
	w.mu.Lock()
	f, ok := w.fields[fieldID]
	if ok {
		delete(w.fields, fieldID)
		f.removed = true
		w.cancelTimerLocked(f)
		w.metrics.SetFieldsTracked(len(w.fields))
	}
	w.mu.Unlock()

	if !ok {
		return
	}
	f.sub.Dispose()
	w.renderer.Detach(fieldID)
	w.logger.Debug("Untracked field", zap.String("field", fieldID.String()))
}

// CheckNow analyses a field immediately, skipping the quiet period
func (w *Watcher) CheckNow(fieldID id.FieldID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.fields[fieldID]
	if !ok {
		return ErrUnknownField
	}
	w.cancelTimerLocked(f)
	w.beginLocked(f)
	return nil
}

// Apply writes one suggestion into a tracked field. The write notifies the
// field, so the edited text goes through the normal quiet period.
func (w *Watcher) Apply(fieldID id.FieldID, is issue.Issue) error {
	w.mu.Lock()
	f, ok := w.fields[fieldID]
	w.mu.Unlock()
	if !ok {
		return ErrUnknownField
	}

	if _, err := apply.Apply(f.surface, is); err != nil {
		return err
	}
	w.recordCorrections(1)
	return nil
}

// ApplyAll writes every active suggestion of a field in one edit
func (w *Watcher) ApplyAll(fieldID id.FieldID) (apply.Report, error) {
	w.mu.Lock()
	f, ok := w.fields[fieldID]
	var issues []issue.Issue
	if ok {
		issues = append(issues, f.issues...)
	}
	w.mu.Unlock()
	if !ok {
		return apply.Report{}, ErrUnknownField
	}

	_, report := apply.ApplyAll(f.surface, issues)
	w.recordCorrections(len(report.Applied))
	return report, nil
}

func (w *Watcher) recordCorrections(n int) {
	if n == 0 {
		return
	}
	w.mu.Lock()
	w.stats.Corrections += int64(n)
	w.mu.Unlock()
	w.metrics.AddCorrections(n)
	w.logger.Debug("Applied corrections", zap.Int("count", n))
}

// Field returns a snapshot of one tracked field
func (w *Watcher) Field(fieldID id.FieldID) (FieldSnapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.fields[fieldID]
	if !ok {
		return FieldSnapshot{}, false
	}
	return snapshot(fieldID, f), true
}

// Fields returns snapshots of every tracked field
func (w *Watcher) Fields() []FieldSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]FieldSnapshot, 0, len(w.fields))
	for fieldID, f := range w.fields {
		out = append(out, snapshot(fieldID, f))
	}
	return out
}

// Stats returns cumulative counters
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Tracked = len(w.fields)
	return s
}

// Wait blocks until no analysis is in flight
func (w *Watcher) Wait() {
	w.inflight.Wait()
}

// Close stops every timer, drops subscriptions and waits for running analyses
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	subs := make([]surface.Disposable, 0, len(w.fields))
	for _, f := range w.fields {
		w.cancelTimerLocked(f)
		subs = append(subs, f.sub)
	}
	w.mu.Unlock()

	w.unsubscribe()
	for _, sub := range subs {
		sub.Dispose()
	}
	w.cancel()
	w.inflight.Wait()
}

func (w *Watcher) handle(fieldID id.FieldID, ev surface.Event) {
	switch ev.Type {
	case surface.EventInput:
		w.onInput(fieldID)
	case surface.EventFocus:
		w.onFocus(fieldID)
	case surface.EventRemoved:
		w.Untrack(fieldID)
	}
}

func (w *Watcher) onInput(fieldID id.FieldID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.fields[fieldID]
	if !ok || w.closed {
		return
	}
	if !w.store.Get().Active(w.site) {
		w.cancelTimerLocked(f)
		return
	}

	if f.analyzed && f.surface.Text() == f.lastAnalyzed {
		w.cancelTimerLocked(f)
		w.stats.Suppressed++
		return
	}
	w.scheduleLocked(fieldID, f)
}

func (w *Watcher) onFocus(fieldID id.FieldID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.fields[fieldID]
	if !ok || w.closed {
		return
	}
	if f.analyzed && f.surface.Text() == f.lastAnalyzed {
		return
	}
	w.cancelTimerLocked(f)
	w.beginLocked(f)
}

// scheduleLocked restarts the quiet-period timer
func (w *Watcher) scheduleLocked(fieldID id.FieldID, f *trackedField) {
	if f.timer != nil {
		f.timer.Stop()
	}
	f.generation++
	gen := f.generation
	f.state = StatePending
	f.timer = w.clock.AfterFunc(w.quiet, func() { w.fire(fieldID, gen) })
	w.stats.Scheduled++
}

func (w *Watcher) fire(fieldID id.FieldID, gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.fields[fieldID]
	if !ok || w.closed || f.generation != gen || f.state != StatePending {
		return
	}
	f.state = StateIdle
	f.timer = nil
	w.beginLocked(f)
}

func (w *Watcher) cancelTimerLocked(f *trackedField) {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.generation++
	f.state = StateIdle
}

// beginLocked issues an analysis for the field's current content, or marks
// the field dirty when one is already running
func (w *Watcher) beginLocked(f *trackedField) {
	if w.closed {
		return
	}
	if f.inFlight {
		f.dirty = true
		w.stats.Coalesced++
		return
	}

	s := w.store.Get()
	if !s.Active(w.site) {
		return
	}

	text := f.surface.Text()
	if f.analyzed && text == f.lastAnalyzed {
		return
	}

	f.prevAnalyzed, f.prevWasAnalyzed = f.lastAnalyzed, f.analyzed
	f.lastAnalyzed, f.analyzed = text, true
	f.inFlight = true
	w.stats.Analyses++
	w.inflight.Add(1)
	go w.run(f, text, s.Checks())
}

func (w *Watcher) run(f *trackedField, text string, checks []string) {
	defer w.inflight.Done()

	res := w.analyzer.Analyze(w.ctx, text, checks)

	var notify func()
	w.mu.Lock()
	f.inFlight = false
	if f.removed || w.closed {
		w.mu.Unlock()
		return
	}

	fieldID := f.surface.ID()
	switch {
	case !w.store.Get().Active(w.site):
		// disabled while the call was running
		f.issues = nil
		f.markers = 0
		w.renderer.Clear(fieldID)
	case res.Err != nil:
		f.issues = nil
		f.markers = 0
		w.renderer.Clear(fieldID)
		w.stats.Failures++
		// failures keep the previous snapshot so a refocus retries
		if f.analyzed && f.lastAnalyzed == text {
			f.lastAnalyzed, f.analyzed = f.prevAnalyzed, f.prevWasAnalyzed
		}

		kind := res.Err.Kind
		w.logger.Debug("Analysis failed",
			zap.String("field", fieldID.String()),
			zap.String("kind", string(kind)))
		if kind.UserActionable() && w.onCredential != nil {
			handler := w.onCredential
			notify = func() { handler(kind, kind.UserMessage()) }
		}
	default:
		f.issues = res.Issues
		markers, err := w.renderer.Render(f.surface, res.Issues)
		if err != nil {
			w.logger.Warn("Render failed", zap.String("field", fieldID.String()), zap.Error(err))
		}
		f.markers = len(markers)
		w.stats.Markers += int64(len(markers))
	}

	if f.dirty {
		f.dirty = false
		w.beginLocked(f)
	}
	w.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (w *Watcher) onSettings(next, prev settings.Settings) {
	if next.ContextChanged(prev) && w.cache != nil {
		w.cache.Clear()
		w.logger.Info("Cleared suggestion cache after settings change")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	active := next.Active(w.site)
	for fieldID, f := range w.fields {
		f.analyzed = false
		if !active {
			w.cancelTimerLocked(f)
			f.issues = nil
			f.markers = 0
			w.renderer.Clear(fieldID)
			continue
		}
		if f.surface.Focused() {
			w.cancelTimerLocked(f)
			w.beginLocked(f)
		}
	}
}

func snapshot(fieldID id.FieldID, f *trackedField) FieldSnapshot {
	return FieldSnapshot{
		ID:               fieldID,
		Kind:             f.surface.Kind(),
		State:            f.state,
		LastAnalyzedText: f.lastAnalyzed,
		ActiveIssues:     append([]issue.Issue(nil), f.issues...),
		Markers:          f.markers,
		InFlight:         f.inFlight,
	}
}
