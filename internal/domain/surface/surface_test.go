package surface

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

func TestDisposableRunsOnce(t *testing.T) {
	calls := 0
	d := NewDisposable(func() { calls++ })
	d.Dispose()
	d.Dispose()
	assert.Equal(t, 1, calls)

	order := []string{}
	Join(
		NewDisposable(func() { order = append(order, "a") }),
		nil,
		NewDisposable(func() { order = append(order, "b") }),
	).Dispose()
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestNativeEditableText(t *testing.T) {
	n, err := ParseNativeEditable("f1", `Hello <b>wrold</b><br>bye &amp; thanks`)
	require.NoError(t, err)

	assert.Equal(t, KindNativeEditable, n.Kind())
	assert.Equal(t, "Hello wrold\nbye & thanks", n.Text())
}

func TestNativeEditableWrapAndClearPreservesMarkup(t *testing.T) {
	original := `Teh <i>quick</i> fox, teh end &lt;3`
	n, err := ParseNativeEditable("f1", original)
	require.NoError(t, err)
	before := n.InnerHTML()

	require.NoError(t, n.WrapRange(0, 3, "m1"))
	require.NoError(t, n.WrapRange(15, 18, "m2"))
	assert.Equal(t, "Teh quick fox, teh end <3", n.Text(), "markers never change text")

	markers := n.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, MarkerInfo{ID: "m1", Text: "Teh"}, markers[0])
	assert.Equal(t, MarkerInfo{ID: "m2", Text: "teh"}, markers[1])

	text, ok := n.MarkerText("m2")
	assert.True(t, ok)
	assert.Equal(t, "teh", text)
	assert.Contains(t, n.InnerHTML(), `<span class="textwarden-marker" data-textwarden-marker="m1">Teh</span>`)

	assert.Equal(t, 2, n.ClearMarkers())
	assert.Equal(t, before, n.InnerHTML())
	assert.Empty(t, n.Markers())
}

func TestNativeEditableWrapRejections(t *testing.T) {
	n, err := ParseNativeEditable("f1", `ab<b>cd</b>ef`)
	require.NoError(t, err)

	assert.ErrorIs(t, n.WrapRange(1, 3, "x"), ErrSpanUnavailable, "crosses element boundary")
	assert.ErrorIs(t, n.WrapRange(2, 2, "x"), ErrInvalidRange)
	assert.ErrorIs(t, n.WrapRange(4, 99, "x"), ErrInvalidRange)

	require.NoError(t, n.WrapRange(2, 4, "m"))
	require.NoError(t, n.WrapRange(2, 3, "inner"), "nests inside an existing marker")
	assert.Equal(t, `ab<b><span class="textwarden-marker" data-textwarden-marker="m"><span class="textwarden-marker" data-textwarden-marker="inner">c</span>d</span></b>ef`, n.InnerHTML())
	assert.Equal(t, "abcdef", n.Text())

	assert.Equal(t, 2, n.ClearMarkers())
	assert.Equal(t, `ab<b>cd</b>ef`, n.InnerHTML())
}

func TestNativeEditableBlocksReadAsLines(t *testing.T) {
	n, err := ParseNativeEditable("f1", `<p>Intro <i>keep</i></p><p>I saw teh</p>tail<div>x<br></div>`)
	require.NoError(t, err)
	assert.Equal(t, "Intro keep\nI saw teh\ntail\nx\n", n.Text())
}

func TestNativeEditableReplaceRangeKeepsMarkup(t *testing.T) {
	tests := []struct {
		name        string
		fragment    string
		find        string
		replacement string
		want        string
	}{
		{
			name:        "inside one text node",
			fragment:    `<p>say <b>teh</b> word</p>`,
			find:        "teh",
			replacement: "the",
			want:        `<p>say <b>the</b> word</p>`,
		},
		{
			name:        "across element boundary",
			fragment:    `<p>Intro <i>keep</i></p><p>I saw <b>te</b>h cat</p>`,
			find:        "teh",
			replacement: "the",
			want:        `<p>Intro <i>keep</i></p><p>I saw <b>the</b> cat</p>`,
		},
		{
			name:        "fully covered middle node",
			fragment:    `a <i>b</i><b>c</b>d e`,
			find:        " bcd",
			replacement: "X",
			want:        `aX e`,
		},
		{
			name:        "empty replacement drops the wrapper",
			fragment:    `one <b>two</b> three`,
			find:        "two ",
			replacement: "",
			want:        `one three`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNativeEditable("f1", tt.fragment)
			require.NoError(t, err)
			text := n.Text()
			at := strings.Index(text, tt.find)
			require.GreaterOrEqual(t, at, 0)

			n.ReplaceRange(at, at+len(tt.find), tt.replacement)
			assert.Equal(t, tt.want, n.InnerHTML())
			assert.Equal(t, text[:at]+tt.replacement+text[at+len(tt.find):], n.Text())
		})
	}
}

func TestNativeEditableSetTextAndEvents(t *testing.T) {
	n, err := ParseNativeEditable("f1", `old <b>text</b>`)
	require.NoError(t, err)

	var got []EventType
	sub := n.Subscribe(func(ev Event) {
		assert.Equal(t, id.FieldID("f1"), ev.Field)
		got = append(got, ev.Type)
	})

	n.SetSelection(Selection{Start: 4, End: 8})
	n.SetText("new")
	assert.Equal(t, "new", n.Text())
	assert.Equal(t, Selection{Start: 3, End: 3}, n.Selection())
	assert.Empty(t, got, "SetText is silent")

	n.Notify()
	n.Focus()
	assert.True(t, n.Focused())
	n.Blur()
	sub.Dispose()
	n.Notify()

	assert.Equal(t, []EventType{EventInput, EventFocus, EventBlur}, got)
}

func TestPlainValueMeasureSingleLine(t *testing.T) {
	g := Geometry{Left: 10, Top: 20, Width: 80, CharWidth: 8, LineHeight: 16}
	p := NewPlainValue("f", "say teh word", false, g)

	rects := p.Measure(4, 7)
	require.Len(t, rects, 1)
	assert.Equal(t, Rect{Left: 42, Top: 20, Width: 24, Height: 16}, rects[0])

	assert.Nil(t, p.Measure(5, 5))
	assert.Nil(t, p.Measure(0, 99))
}

func TestPlainValueMeasureWrapsTextarea(t *testing.T) {
	// 5 columns per line
	g := Geometry{Width: 40, CharWidth: 8, LineHeight: 10}
	p := NewPlainValue("f", "abcdefgh\nxy", true, g)

	rects := p.Measure(3, 7)
	require.Len(t, rects, 2)
	assert.Equal(t, Rect{Left: 24, Top: 0, Width: 16, Height: 10}, rects[0])
	assert.Equal(t, Rect{Left: 0, Top: 10, Width: 16, Height: 10}, rects[1])

	rects = p.Measure(9, 11)
	require.Len(t, rects, 1)
	assert.Equal(t, Rect{Left: 0, Top: 20, Width: 16, Height: 10}, rects[0])
}

func TestPlainValueMeasureWideRunesAndScroll(t *testing.T) {
	g := Geometry{Width: 400, CharWidth: 10, LineHeight: 20, ScrollTop: 5}
	p := NewPlainValue("f", "日本 ok", true, g)

	rects := p.Measure(len("日本 "), len("日本 ok"))
	require.Len(t, rects, 1)
	assert.Equal(t, Rect{Left: 50, Top: -5, Width: 20, Height: 20}, rects[0])
}

func TestPlainValueSelectionClamp(t *testing.T) {
	p := NewPlainValue("f", "hello", false, DefaultGeometry())
	assert.Equal(t, Selection{Start: 5, End: 5}, p.Selection())

	p.SetSelection(Selection{Start: -3, End: 50})
	assert.Equal(t, Selection{Start: 0, End: 5}, p.Selection())

	p.SetText("hi")
	assert.Equal(t, Selection{Start: 0, End: 2}, p.Selection())
}

func TestViewportSubscriptions(t *testing.T) {
	v := NewViewport(800, 600)
	var events []ViewportEvent
	sub := v.Subscribe(func(ev ViewportEvent) { events = append(events, ev) })
	assert.Equal(t, 1, v.Listeners())

	v.Resize(1024, 768)
	v.ScrollTo(0, 100)
	assert.Equal(t, Rect{Left: 5, Top: -50, Width: 1, Height: 1}, v.ToViewport(Rect{Left: 5, Top: 50, Width: 1, Height: 1}))

	sub.Dispose()
	assert.Equal(t, 0, v.Listeners())
	v.Resize(1, 1)

	require.Len(t, events, 2)
	assert.Equal(t, ViewportResize, events[0].Type)
	assert.Equal(t, Size{Width: 1024, Height: 768}, events[0].Size)
	assert.Equal(t, ViewportScroll, events[1].Type)
}

const page = `<html><body>
<form>
  <input id="name" type="text" value="Jon Doe">
  <input type="email" value="a@b.c">
  <input type="password" value="secret">
  <input type="text" value="locked" readonly>
  <textarea>Its a nice day</textarea>
</form>
<div contenteditable="true">Rich <b>text</b> here <span contenteditable="true">nested</span></div>
<div contenteditable="false">not editable</div>
</body></html>`

func TestDiscover(t *testing.T) {
	doc, err := LoadHTML(strings.NewReader(page), "text/html; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", doc.Charset())

	fields := doc.Discover(nil)
	require.Len(t, fields, 4)

	assert.Equal(t, id.FieldID("name"), fields[0].ID())
	assert.Equal(t, "Jon Doe", fields[0].Text())
	assert.Equal(t, KindPlainValue, fields[0].Kind())

	assert.True(t, id.IsGenerated(fields[1].ID().String(), id.FieldPrefix))
	assert.Equal(t, "a@b.c", fields[1].Text())

	ta, ok := fields[2].(*PlainValue)
	require.True(t, ok)
	assert.True(t, ta.Multiline())
	assert.Equal(t, "Its a nice day", ta.Text())
	assert.Equal(t, float64(8+2*40), ta.Geometry().Top)

	assert.Equal(t, KindNativeEditable, fields[3].Kind())
	assert.Equal(t, "Rich text here nested", fields[3].Text())

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, fields[1].ID().String(), "generated ids are written back")
}

func TestDiscoverWritesBackPlainValues(t *testing.T) {
	doc, err := LoadHTML(strings.NewReader(`<input type="text" value="teh"><textarea>teh</textarea>`), "")
	require.NoError(t, err)

	fields := doc.Discover(nil)
	require.Len(t, fields, 2)
	fields[0].SetText("the")
	fields[1].SetText("the end")

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `value="the"`)
	assert.Regexp(t, `<textarea id="textwarden-field-[0-9A-Z]{26}">the end</textarea>`, out)
}

func TestLoadHTMLTranscodes(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(`<html><body><textarea>Café crème</textarea></body></html>`)
	require.NoError(t, err)

	doc, err := LoadHTML(strings.NewReader(encoded), "text/html; charset=ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", doc.Charset())

	fields := doc.Discover(nil)
	require.Len(t, fields, 1)
	assert.Equal(t, "Café crème", fields[0].Text())
}

func TestLoadHTMLTooLarge(t *testing.T) {
	_, err := LoadHTML(strings.NewReader(strings.Repeat("a", MaxDocumentSize+1)), "")
	assert.Error(t, err)
}
