package surface

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

// MaxDocumentSize limits HTML input to 10MB
const MaxDocumentSize = 10 * 1024 * 1024

// editableSelector matches every element TextWarden can watch
const editableSelector = `textarea, input[type="text"], input[type="email"], input[type="search"], input:not([type]), [contenteditable]`

// GeometryFunc assigns a layout box to the n-th discovered plain-value field
type GeometryFunc func(n int, sel *goquery.Selection) Geometry

// StackedGeometry places fields below each other, 40px apart
func StackedGeometry(n int, _ *goquery.Selection) Geometry {
	g := DefaultGeometry()
	g.Left = 8
	g.Top = 8 + float64(n)*40
	return g
}

// Document is a parsed page holding editable fields
type Document struct {
	doc     *goquery.Document
	charset string
}

// LoadHTML parses a page, transcoding to UTF-8. The charset comes from
// contentType when it names one, otherwise it is detected from the bytes.
func LoadHTML(r io.Reader, contentType string) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds maximum size of %d bytes", MaxDocumentSize)
	}

	label := declaredCharset(contentType)
	if label == "" {
		label = DetectCharset(data)
	}

	reader, err := charset.NewReader(bytes.NewReader(data), "text/html; charset="+label)
	if err != nil {
		// Fallback to direct parsing
		reader = bytes.NewReader(data)
		label = "utf-8"
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc, charset: label}, nil
}

// NewDocument wraps an already parsed goquery document
func NewDocument(doc *goquery.Document) *Document {
	return &Document{doc: doc, charset: "utf-8"}
}

// DetectCharset guesses the encoding of raw bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// Charset returns the source encoding the document was decoded from
func (d *Document) Charset() string {
	return d.charset
}

// Discover returns every editable field in document order. Fields without an
// id get a generated one, written back into the page. contenteditable="false",
// disabled and readonly elements, and editables nested in another editable
// region are skipped.
func (d *Document) Discover(layout GeometryFunc) []Surface {
	if layout == nil {
		layout = StackedGeometry
	}

	var (
		fields []Surface
		plain  int
	)
	d.doc.Find(editableSelector).Each(func(_ int, sel *goquery.Selection) {
		if skipEditable(sel) {
			return
		}

		fieldID := ensureID(sel)
		node := sel.Nodes[0]

		if _, ok := sel.Attr("contenteditable"); ok && node.Data != "textarea" && node.Data != "input" {
			fields = append(fields, NewNativeEditable(fieldID, node))
			return
		}

		multiline := node.Data == "textarea"
		value := sel.AttrOr("value", "")
		if multiline {
			value = sel.Text()
		}
		pv := NewPlainValue(fieldID, value, multiline, layout(plain, sel))
		pv.bind(node)
		fields = append(fields, pv)
		plain++
	})
	return fields
}

// HTML renders the whole document, including any applied edits
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

func skipEditable(sel *goquery.Selection) bool {
	if v, ok := sel.Attr("contenteditable"); ok && strings.EqualFold(strings.TrimSpace(v), "false") {
		return true
	}
	if _, ok := sel.Attr("disabled"); ok {
		return true
	}
	if _, ok := sel.Attr("readonly"); ok {
		return true
	}
	return sel.ParentsFiltered(`[contenteditable]:not([contenteditable="false"])`).Length() > 0
}

func ensureID(sel *goquery.Selection) id.FieldID {
	if existing := strings.TrimSpace(sel.AttrOr("id", "")); existing != "" {
		return id.FieldID(existing)
	}
	fieldID := id.NewFieldID()
	sel.SetAttr("id", fieldID.String())
	return fieldID
}
