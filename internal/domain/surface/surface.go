// Package surface abstracts the editable regions TextWarden watches.
//
// Two variants exist and are chosen once, when a field is registered:
//   - NativeEditable: rich content held as an HTML node tree; highlights are
//     inserted as marker elements around the matched text
//   - PlainValue: a flat string value (input, textarea); highlights are drawn
//     on an overlay using measured text geometry
//
// Offsets everywhere are byte offsets into Text().
package surface

import (
	"sync"

	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

// Kind identifies the surface variant
type Kind string

const (
	KindNativeEditable Kind = "native_editable"
	KindPlainValue     Kind = "plain_value"
)

// EventType classifies surface notifications
type EventType string

const (
	EventInput   EventType = "input"
	EventFocus   EventType = "focus"
	EventBlur    EventType = "blur"
	EventRemoved EventType = "removed"
)

// Event is delivered to surface subscribers
type Event struct {
	Type  EventType
	Field id.FieldID
}

// Selection is the caret or selected range
type Selection struct {
	Start int
	End   int
}

// Collapsed reports whether the selection is a bare caret
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

// Surface is any editable region
type Surface interface {
	ID() id.FieldID
	Kind() Kind
	Text() string
	// SetText replaces the content without notifying subscribers
	SetText(text string)
	Selection() Selection
	SetSelection(sel Selection)
	Focused() bool
	// Notify emits one input event, as a native edit would
	Notify()
	Subscribe(fn func(Event)) Disposable
}

// Disposable releases a resource exactly once
type Disposable interface {
	Dispose()
}

type disposeOnce struct {
	once sync.Once
	fn   func()
}

func (d *disposeOnce) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// NewDisposable wraps fn so repeated Dispose calls run it once
func NewDisposable(fn func()) Disposable {
	return &disposeOnce{fn: fn}
}

// Join disposes every handle, in order, when the result is disposed
func Join(handles ...Disposable) Disposable {
	return NewDisposable(func() {
		for _, h := range handles {
			if h != nil {
				h.Dispose()
			}
		}
	})
}

// emitter fans events out to listeners. Listeners run outside the lock.
type emitter[E any] struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(E)
}

func (e *emitter[E]) subscribe(fn func(E)) Disposable {
	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[int]func(E))
	}
	key := e.next
	e.next++
	e.listeners[key] = fn
	e.mu.Unlock()

	return NewDisposable(func() {
		e.mu.Lock()
		delete(e.listeners, key)
		e.mu.Unlock()
	})
}

func (e *emitter[E]) emit(ev E) {
	e.mu.Lock()
	fns := make([]func(E), 0, len(e.listeners))
	// subscription order
	for i := 0; i < e.next; i++ {
		if fn, ok := e.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (e *emitter[E]) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// clampSelection keeps sel inside [0, n]
func clampSelection(sel Selection, n int) Selection {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > n {
			return n
		}
		return v
	}
	sel.Start, sel.End = clamp(sel.Start), clamp(sel.End)
	if sel.End < sel.Start {
		sel.End = sel.Start
	}
	return sel
}
